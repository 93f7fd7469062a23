// Package schedule holds scheduled one-shot transfers, recurring payments
// and the beneficiary registry. Nothing runs on its own: due jobs execute
// only when a caller invokes RunDueScheduled or RunDueRecurring with the
// current time, which keeps the engine deterministic under test.
package schedule

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gdbank-dev/gdbank/internal/model"
)

var (
	// ErrBeneficiaryExists means the (owner, account) pair is already
	// registered.
	ErrBeneficiaryExists = errors.New("beneficiary already added")

	// ErrBeneficiaryNotFound means no such (owner, account) pair exists.
	ErrBeneficiaryNotFound = errors.New("beneficiary not found")

	// ErrJobNotFound means the recurring-job index is out of range.
	ErrJobNotFound = errors.New("no recurring payment at that index")

	// ErrInvalidInterval means the recurring interval is below one day.
	ErrInvalidInterval = errors.New("interval must be at least one day")
)

// Bank is the callback surface the engine needs from the ledger: account
// resolution when registering jobs, and the transfer path when executing
// them. Job execution re-enters the ledger's own serialization.
type Bank interface {
	Get(number int) (model.Account, error)
	Transfer(from, to int, amount decimal.Decimal) error
}

// Result reports one executed job. A failed transfer still consumes a
// one-shot job and still advances a recurring job's next run.
type Result struct {
	From   int
	To     int
	Amount decimal.Decimal
	Err    error
}

// Engine owns the job lists and beneficiary registry.
type Engine struct {
	bank Bank

	mu            sync.Mutex
	scheduled     []model.ScheduledTransfer
	recurring     []model.RecurringPayment
	beneficiaries map[int][]model.Beneficiary

	now func() time.Time
}

// NewEngine creates an Engine bound to a ledger.
func NewEngine(bank Bank) *Engine {
	return &Engine{
		bank:          bank,
		beneficiaries: make(map[int][]model.Beneficiary),
		now:           time.Now,
	}
}

// State is a point-in-time copy of every job list, used to carry jobs
// across process restarts.
type State struct {
	Scheduled     []model.ScheduledTransfer
	Recurring     []model.RecurringPayment
	Beneficiaries []model.Beneficiary
}

// Snapshot copies the engine's job lists.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := State{
		Scheduled: make([]model.ScheduledTransfer, len(e.scheduled)),
		Recurring: make([]model.RecurringPayment, len(e.recurring)),
	}
	copy(st.Scheduled, e.scheduled)
	copy(st.Recurring, e.recurring)
	for _, list := range e.beneficiaries {
		st.Beneficiaries = append(st.Beneficiaries, list...)
	}
	sort.Slice(st.Beneficiaries, func(i, j int) bool {
		a, b := st.Beneficiaries[i], st.Beneficiaries[j]
		if a.Owner != b.Owner {
			return a.Owner < b.Owner
		}
		return a.Account < b.Account
	})
	return st
}

// Restore replaces the engine's job lists with a previously snapshotted
// state. No account resolution is performed; jobs referencing accounts
// that no longer exist fail at execution time instead.
func (e *Engine) Restore(st State) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.scheduled = append([]model.ScheduledTransfer(nil), st.Scheduled...)
	e.recurring = append([]model.RecurringPayment(nil), st.Recurring...)
	e.beneficiaries = make(map[int][]model.Beneficiary)
	for _, b := range st.Beneficiaries {
		e.beneficiaries[b.Owner] = append(e.beneficiaries[b.Owner], b)
	}
}

func (e *Engine) resolve(numbers ...int) error {
	for _, n := range numbers {
		if _, err := e.bank.Get(n); err != nil {
			return err
		}
	}
	return nil
}

// ScheduleTransfer registers a one-shot transfer to run at executeAt.
func (e *Engine) ScheduleTransfer(from, to int, amount decimal.Decimal, executeAt time.Time) error {
	if err := e.resolve(from, to); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.scheduled = append(e.scheduled, model.ScheduledTransfer{
		From:      from,
		To:        to,
		Amount:    amount,
		ExecuteAt: executeAt,
		CreatedAt: e.now(),
	})
	return nil
}

// ListScheduled returns pending one-shot jobs sorted by execution time.
func (e *Engine) ListScheduled() []model.ScheduledTransfer {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]model.ScheduledTransfer, len(e.scheduled))
	copy(out, e.scheduled)
	sort.Slice(out, func(i, j int) bool { return out[i].ExecuteAt.Before(out[j].ExecuteAt) })
	return out
}

// RunDueScheduled executes every job due at now. Each due job fires
// exactly once and is removed from the pending set whether or not its
// transfer succeeded; failures are reported in the results.
func (e *Engine) RunDueScheduled(now time.Time) []Result {
	e.mu.Lock()
	var due, remaining []model.ScheduledTransfer
	for _, job := range e.scheduled {
		if !job.ExecuteAt.After(now) {
			due = append(due, job)
		} else {
			remaining = append(remaining, job)
		}
	}
	e.scheduled = remaining
	e.mu.Unlock()

	results := make([]Result, 0, len(due))
	for _, job := range due {
		err := e.bank.Transfer(job.From, job.To, job.Amount)
		results = append(results, Result{From: job.From, To: job.To, Amount: job.Amount, Err: err})
	}
	return results
}

// AddRecurring registers a recurring payment. The first run is at start
// when given, otherwise immediately due.
func (e *Engine) AddRecurring(from, to int, amount decimal.Decimal, intervalDays int, start *time.Time) error {
	if intervalDays < 1 {
		return ErrInvalidInterval
	}
	if err := e.resolve(from, to); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	next := e.now()
	if start != nil {
		next = *start
	}
	e.recurring = append(e.recurring, model.RecurringPayment{
		From:         from,
		To:           to,
		Amount:       amount,
		IntervalDays: intervalDays,
		NextRun:      next,
		CreatedAt:    e.now(),
	})
	return nil
}

// ListRecurring returns the recurring payments in registration order. The
// position in this list is the cancellation index.
func (e *Engine) ListRecurring() []model.RecurringPayment {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]model.RecurringPayment, len(e.recurring))
	copy(out, e.recurring)
	return out
}

// CancelRecurring removes the recurring payment at index.
func (e *Engine) CancelRecurring(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= len(e.recurring) {
		return fmt.Errorf("%w: %d", ErrJobNotFound, index)
	}
	e.recurring = append(e.recurring[:index], e.recurring[index+1:]...)
	return nil
}

// RunDueRecurring executes every recurring payment due at now and
// advances its next run by the interval, regardless of transfer outcome.
// A job overdue by several intervals fires once per invocation; there is
// no backlog catch-up.
func (e *Engine) RunDueRecurring(now time.Time) []Result {
	e.mu.Lock()
	var due []model.RecurringPayment
	for i := range e.recurring {
		job := &e.recurring[i]
		if job.NextRun.After(now) {
			continue
		}
		due = append(due, *job)
		job.NextRun = job.NextRun.AddDate(0, 0, job.IntervalDays)
	}
	e.mu.Unlock()

	results := make([]Result, 0, len(due))
	for _, job := range due {
		err := e.bank.Transfer(job.From, job.To, job.Amount)
		results = append(results, Result{From: job.From, To: job.To, Amount: job.Amount, Err: err})
	}
	return results
}

// AddBeneficiary registers a saved destination for an owner account.
func (e *Engine) AddBeneficiary(owner, account int, nickname string) error {
	if err := e.resolve(owner, account); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, b := range e.beneficiaries[owner] {
		if b.Account == account {
			return fmt.Errorf("%w: %d", ErrBeneficiaryExists, account)
		}
	}
	e.beneficiaries[owner] = append(e.beneficiaries[owner], model.Beneficiary{
		Owner:    owner,
		Account:  account,
		Nickname: nickname,
	})
	return nil
}

// ListBeneficiaries returns the owner's saved destinations.
func (e *Engine) ListBeneficiaries(owner int) []model.Beneficiary {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]model.Beneficiary, len(e.beneficiaries[owner]))
	copy(out, e.beneficiaries[owner])
	return out
}

// RemoveBeneficiary deletes an (owner, account) pair.
func (e *Engine) RemoveBeneficiary(owner, account int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	list := e.beneficiaries[owner]
	for i, b := range list {
		if b.Account == account {
			e.beneficiaries[owner] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrBeneficiaryNotFound, account)
}
