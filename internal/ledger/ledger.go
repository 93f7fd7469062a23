// Package ledger owns the account collection and every balance-mutating
// operation. All policy lives here: account numbering, minimum balances,
// the single-transaction deposit cap, daily limits, locks, overdraft and
// reversal. Mutations are serialized under one mutex; the transaction log
// is appended after the in-memory change is final, so a failed log write
// never reverts a committed balance change.
package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gdbank-dev/gdbank/internal/metrics"
	"github.com/gdbank-dev/gdbank/internal/model"
	"github.com/gdbank-dev/gdbank/internal/pin"
	"github.com/gdbank-dev/gdbank/internal/txlog"
)

// StartNumber is the first account number ever allocated.
const StartNumber = 1001

// Options configures a Ledger.
type Options struct {
	Log     *txlog.Service
	Hasher  *pin.Hasher
	Logger  *slog.Logger
	Metrics *metrics.Collector // optional

	// BaseCurrency and Rates drive display-only conversion. Balances are
	// always stored in the base unit.
	BaseCurrency string
	Rates        map[string]float64

	// NextNumber resumes the account number allocator at least at this
	// value, so numbers stay monotonic across restarts even after
	// deletions. Zero derives the allocator from the loaded accounts.
	NextNumber int

	Now func() time.Time // defaults to time.Now
}

// Ledger is the single authoritative owner of all accounts.
type Ledger struct {
	mu       sync.Mutex
	accounts map[int]*model.Account
	next     int

	log     *txlog.Service
	hasher  *pin.Hasher
	logger  *slog.Logger
	metrics *metrics.Collector
	daily   *dailyTracker

	baseCurrency string
	rates        map[string]decimal.Decimal

	now func() time.Time
}

// New creates a Ledger over a previously loaded account set. The next
// account number continues after the highest ever seen, so numbers are
// never reused even across deletions.
func New(accounts []*model.Account, opts Options) *Ledger {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Hasher == nil {
		opts.Hasher = pin.NewHasher(pin.DefaultParams())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.BaseCurrency == "" {
		opts.BaseCurrency = "INR"
	}

	byNumber := make(map[int]*model.Account, len(accounts))
	next := StartNumber
	if opts.NextNumber > next {
		next = opts.NextNumber
	}
	for _, acc := range accounts {
		if acc.Currency == "" {
			acc.Currency = opts.BaseCurrency
		}
		byNumber[acc.Number] = acc
		if acc.Number >= next {
			next = acc.Number + 1
		}
	}

	rates := make(map[string]decimal.Decimal, len(opts.Rates))
	for code, rate := range opts.Rates {
		rates[strings.ToUpper(code)] = decimal.NewFromFloat(rate)
	}
	if _, ok := rates[opts.BaseCurrency]; !ok {
		rates[opts.BaseCurrency] = decimal.NewFromInt(1)
	}

	return &Ledger{
		accounts:     byNumber,
		next:         next,
		log:          opts.Log,
		hasher:       opts.Hasher,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
		daily:        newDailyTracker(),
		baseCurrency: opts.BaseCurrency,
		rates:        rates,
		now:          opts.Now,
	}
}

// NextNumber returns the number the next created account will receive.
// Persisted so the allocator survives restarts.
func (l *Ledger) NextNumber() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.next
}

// get resolves an account number under the caller-held lock.
func (l *Ledger) get(number int) (*model.Account, error) {
	acc, ok := l.accounts[number]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrAccountNotFound, number)
	}
	return acc, nil
}

// logTx appends to the transaction log. Append failures are an operator
// concern only; the balance change they describe has already committed.
func (l *Ledger) logTx(account int, action model.Action, amount, balanceAfter decimal.Decimal, note string) model.Transaction {
	tx, err := l.log.Append(account, action, amount, balanceAfter, note)
	if err != nil {
		l.logger.Warn("transaction log write failed", "account", account, "action", string(action), "error", err)
	}
	return tx
}

func (l *Ledger) observe(action model.Action, err error) {
	if l.metrics == nil {
		return
	}
	l.metrics.RecordOperation(string(action), err == nil)
}

func (l *Ledger) gauge(acc *model.Account) {
	if l.metrics == nil {
		return
	}
	bal, _ := acc.Balance.Float64()
	l.metrics.SetBalance(strconv.Itoa(acc.Number), bal)
}

// CreateAccount opens a new account. The initial deposit must meet the
// account type's minimum balance; the allocated number is monotonic.
func (l *Ledger) CreateAccount(name string, age int, typ model.AccountType, initialDeposit decimal.Decimal) (model.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if age < 18 {
		l.observe(model.ActionCreate, ErrUnderage)
		return model.Account{}, ErrUnderage
	}
	if !typ.Valid() {
		l.observe(model.ActionCreate, ErrInvalidAccountType)
		return model.Account{}, fmt.Errorf("%w: %q", ErrInvalidAccountType, typ)
	}
	if initialDeposit.LessThan(typ.MinimumBalance()) {
		l.observe(model.ActionCreate, ErrBelowMinimumOpening)
		return model.Account{}, fmt.Errorf("%w: need at least %s", ErrBelowMinimumOpening, typ.MinimumBalance().StringFixed(2))
	}

	acc := &model.Account{
		Number:    l.next,
		Name:      strings.TrimSpace(name),
		Age:       age,
		Type:      typ,
		Balance:   initialDeposit,
		Status:    model.StatusActive,
		CreatedAt: l.now(),
		Currency:  l.baseCurrency,
	}
	l.accounts[acc.Number] = acc
	l.next++

	l.logTx(acc.Number, model.ActionCreate, initialDeposit, acc.Balance, "account opened")
	l.observe(model.ActionCreate, nil)
	l.gauge(acc)
	return *acc, nil
}

// Deposit credits an account. A non-nil dailyLimit caps the sum of the
// day's absolute amounts for the account.
func (l *Ledger) Deposit(number int, amount decimal.Decimal, dailyLimit *decimal.Decimal) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bal, err := l.deposit(number, amount, dailyLimit, model.ActionDeposit, "")
	l.observe(model.ActionDeposit, err)
	return bal, err
}

func (l *Ledger) deposit(number int, amount decimal.Decimal, dailyLimit *decimal.Decimal, action model.Action, note string) (decimal.Decimal, error) {
	acc, err := l.get(number)
	if err != nil {
		return decimal.Zero, err
	}
	if acc.Locked {
		return decimal.Zero, fmt.Errorf("%w: %d", ErrAccountLocked, number)
	}
	if dailyLimit != nil && l.daily.wouldExceed(number, l.now(), amount, *dailyLimit) {
		return decimal.Zero, fmt.Errorf("%w: limit %s", ErrDailyLimitExceeded, dailyLimit.StringFixed(2))
	}
	if err := applyDeposit(acc, amount); err != nil {
		return decimal.Zero, err
	}

	l.logTx(number, action, amount, acc.Balance, note)
	l.daily.record(number, l.now(), amount)
	l.gauge(acc)
	return acc.Balance, nil
}

// Withdraw debits an account. When the minimum-balance check fails and an
// overdraft policy covers the shortfall, the withdrawal is forced, the fee
// is deducted and both are logged as separate entries.
func (l *Ledger) Withdraw(number int, amount decimal.Decimal, dailyLimit *decimal.Decimal) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bal, err := l.withdraw(number, amount, dailyLimit)
	l.observe(model.ActionWithdraw, err)
	return bal, err
}

func (l *Ledger) withdraw(number int, amount decimal.Decimal, dailyLimit *decimal.Decimal) (decimal.Decimal, error) {
	acc, err := l.get(number)
	if err != nil {
		return decimal.Zero, err
	}
	if acc.Locked {
		return decimal.Zero, fmt.Errorf("%w: %d", ErrAccountLocked, number)
	}
	if dailyLimit != nil && l.daily.wouldExceed(number, l.now(), amount, *dailyLimit) {
		return decimal.Zero, fmt.Errorf("%w: limit %s", ErrDailyLimitExceeded, dailyLimit.StringFixed(2))
	}

	err = applyWithdraw(acc, amount)
	if err == nil {
		l.logTx(number, model.ActionWithdraw, amount, acc.Balance, "")
		l.daily.record(number, l.now(), amount)
		l.gauge(acc)
		return acc.Balance, nil
	}
	if !errors.Is(err, ErrInsufficientFunds) || acc.Overdraft == nil {
		return decimal.Zero, err
	}

	// Overdraft path: allowed when the projected balance is negative but
	// within the limit. The fee is charged after the withdrawal and may
	// take the balance past -limit, matching the policy's fee-on-use
	// semantics.
	projected := acc.Balance.Sub(amount)
	if !projected.IsNegative() || projected.Neg().GreaterThan(acc.Overdraft.Limit) {
		return decimal.Zero, err
	}

	if err := forceWithdraw(acc, amount); err != nil {
		return decimal.Zero, err
	}
	l.logTx(number, model.ActionWithdraw, amount, acc.Balance, "overdraft used")

	fee := acc.Overdraft.Fee
	if fee.IsPositive() {
		acc.Balance = acc.Balance.Sub(fee)
		l.logTx(number, model.ActionOverdraftFee, fee, acc.Balance, "")
	}

	l.daily.record(number, l.now(), amount)
	l.gauge(acc)
	return acc.Balance, nil
}

// Transfer atomically moves amount between two accounts. If the
// destination credit fails the source debit is rolled back, so no partial
// transfer is ever observable. The baseline transfer path has no overdraft
// fallback.
func (l *Ledger) Transfer(from, to int, amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.transfer(from, to, amount)
	l.observe(model.ActionTransferOut, err)
	return err
}

func (l *Ledger) transfer(from, to int, amount decimal.Decimal) error {
	if from == to {
		return ErrSameAccount
	}

	src, err := l.get(from)
	if err != nil {
		return err
	}
	dst, err := l.get(to)
	if err != nil {
		return err
	}
	if src.Locked {
		return fmt.Errorf("%w: %d", ErrAccountLocked, from)
	}
	if dst.Locked {
		return fmt.Errorf("%w: %d", ErrAccountLocked, to)
	}
	if !src.IsActive() {
		return fmt.Errorf("%w: %d", ErrAccountInactive, from)
	}
	if !dst.IsActive() {
		return fmt.Errorf("%w: %d", ErrAccountInactive, to)
	}

	if err := applyWithdraw(src, amount); err != nil {
		return err
	}
	if err := applyDeposit(dst, amount); err != nil {
		// Roll back the debit so the failure leaves both balances
		// exactly as they were.
		src.Balance = src.Balance.Add(amount)
		return err
	}

	l.logTx(from, model.ActionTransferOut, amount, src.Balance, fmt.Sprintf("to %d", to))
	l.logTx(to, model.ActionTransferIn, amount, dst.Balance, fmt.Sprintf("from %d", from))
	l.daily.record(from, l.now(), amount)
	l.daily.record(to, l.now(), amount)
	l.gauge(src)
	l.gauge(dst)
	return nil
}

// ReverseLastTransaction appends a compensating entry for the account's
// most recent logged transaction. Credits are compensated by a withdrawal
// and debits by a deposit; the original row is never touched. The REVERSAL
// entry records the original positive magnitude, with the reversed action
// and tx id in the note.
func (l *Ledger) ReverseLastTransaction(number int) (model.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx, err := l.reverseLast(number)
	l.observe(model.ActionReversal, err)
	return tx, err
}

func (l *Ledger) reverseLast(number int) (model.Transaction, error) {
	acc, err := l.get(number)
	if err != nil {
		return model.Transaction{}, err
	}
	if acc.Locked {
		return model.Transaction{}, fmt.Errorf("%w: %d", ErrAccountLocked, number)
	}

	last, ok := l.log.Last(number)
	if !ok {
		return model.Transaction{}, fmt.Errorf("%w: no transactions for account %d", ErrNotReversible, number)
	}

	switch {
	case last.Action.Credit():
		if err := applyWithdraw(acc, last.Amount); err != nil {
			return model.Transaction{}, err
		}
	case last.Action.Debit():
		if err := applyDeposit(acc, last.Amount); err != nil {
			return model.Transaction{}, err
		}
	default:
		return model.Transaction{}, fmt.Errorf("%w: %s", ErrNotReversible, last.Action)
	}

	note := fmt.Sprintf("reverses %s %s", last.Action, last.ID)
	rev := l.logTx(number, model.ActionReversal, last.Amount, acc.Balance, note)
	l.gauge(acc)
	return rev, nil
}
