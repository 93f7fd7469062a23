package ledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gdbank-dev/gdbank/internal/model"
	"github.com/gdbank-dev/gdbank/internal/pin"
)

// Lock sets the lock flag. Locked accounts reject every balance-mutating
// operation regardless of status.
func (l *Ledger) Lock(number int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, err := l.get(number)
	if err != nil {
		return err
	}
	acc.Locked = true
	return nil
}

// Unlock clears the lock flag.
func (l *Ledger) Unlock(number int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, err := l.get(number)
	if err != nil {
		return err
	}
	acc.Locked = false
	return nil
}

// SetPIN stores a one-way hash of the PIN. The plaintext is never kept.
func (l *Ledger) SetPIN(number int, plain string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, err := l.get(number)
	if err != nil {
		return err
	}
	if len(plain) < pin.MinPINLength {
		return ErrInvalidPIN
	}
	hash, err := l.hasher.Hash(plain)
	if err != nil {
		return fmt.Errorf("hashing PIN: %w", err)
	}
	acc.PINHash = hash
	return nil
}

// CheckPIN verifies an attempt against the stored hash. An account with no
// PIN set verifies as false, not as an error.
func (l *Ledger) CheckPIN(number int, attempt string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, err := l.get(number)
	if err != nil {
		return false, err
	}
	if acc.PINHash == "" {
		return false, nil
	}
	return l.hasher.Verify(attempt, acc.PINHash), nil
}

// SetOverdraft attaches an overdraft policy to the account.
func (l *Ledger) SetOverdraft(number int, limit, fee decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, err := l.get(number)
	if err != nil {
		return err
	}
	if limit.IsNegative() || fee.IsNegative() {
		return ErrInvalidAmount
	}
	acc.Overdraft = &model.OverdraftPolicy{Limit: limit, Fee: fee}
	return nil
}

// OverdraftOf returns the account's overdraft policy, if any.
func (l *Ledger) OverdraftOf(number int) (model.OverdraftPolicy, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, err := l.get(number)
	if err != nil {
		return model.OverdraftPolicy{}, false, err
	}
	if acc.Overdraft == nil {
		return model.OverdraftPolicy{}, false, nil
	}
	return *acc.Overdraft, true, nil
}

// Rename updates the display name.
func (l *Ledger) Rename(number int, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, err := l.get(number)
	if err != nil {
		return err
	}
	acc.Name = strings.TrimSpace(name)
	return nil
}

// Close marks the account Inactive. Funds stay on the books; the account
// rejects deposits, withdrawals and transfers until reopened.
func (l *Ledger) Close(number int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, err := l.get(number)
	if err != nil {
		return err
	}
	if !acc.IsActive() {
		return fmt.Errorf("%w: %d", ErrAccountInactive, number)
	}
	acc.Status = model.StatusInactive
	return nil
}

// Reopen reactivates a closed account.
func (l *Ledger) Reopen(number int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, err := l.get(number)
	if err != nil {
		return err
	}
	if acc.IsActive() {
		return fmt.Errorf("account %d is already active", number)
	}
	acc.Status = model.StatusActive
	return nil
}

// UpgradeType changes the account type. Only active accounts qualify and
// the type must actually change. The new minimum balance applies from the
// next debit onward.
func (l *Ledger) UpgradeType(number int, typ model.AccountType) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, err := l.get(number)
	if err != nil {
		return err
	}
	if !acc.IsActive() {
		return fmt.Errorf("%w: %d", ErrAccountInactive, number)
	}
	if !typ.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAccountType, typ)
	}
	if acc.Type == typ {
		return fmt.Errorf("account %d is already of type %s", number, typ)
	}
	acc.Type = typ
	return nil
}

// ImportAccounts merges externally sourced accounts into the ledger,
// overwriting any existing account with the same number. Entries with a
// non-positive number or unknown type are skipped. Returns the number of
// accounts absorbed. Imports are not logged as transactions.
func (l *Ledger) ImportAccounts(accounts []model.Account) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	imported := 0
	for _, acc := range accounts {
		if acc.Number <= 0 || !acc.Type.Valid() {
			continue
		}
		a := acc
		if a.Currency == "" {
			a.Currency = l.baseCurrency
		}
		l.accounts[a.Number] = &a
		if a.Number >= l.next {
			l.next = a.Number + 1
		}
		l.gauge(&a)
		imported++
	}
	return imported
}

// SetCurrency assigns a display currency. The stored balance unit does
// not change.
func (l *Ledger) SetCurrency(number int, code string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, err := l.get(number)
	if err != nil {
		return err
	}
	code = strings.ToUpper(code)
	if _, ok := l.rates[code]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedCurrency, code)
	}
	acc.Currency = code
	return nil
}

// ConvertBalance returns the account balance expressed in another
// configured currency. Display-only; nothing is mutated.
func (l *Ledger) ConvertBalance(number int, to string) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, err := l.get(number)
	if err != nil {
		return decimal.Zero, err
	}
	to = strings.ToUpper(to)
	toRate, ok := l.rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, to)
	}
	fromRate, ok := l.rates[acc.Currency]
	if !ok {
		fromRate = decimal.NewFromInt(1)
	}
	// Balance -> base units -> target currency.
	return acc.Balance.Div(fromRate).Mul(toRate).Round(2), nil
}

// SetLowBalanceThreshold arms a low-balance alert for the account.
func (l *Ledger) SetLowBalanceThreshold(number int, threshold decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, err := l.get(number)
	if err != nil {
		return err
	}
	acc.LowBalanceAlertAt = &threshold
	return nil
}

// LowBalanceAlert flags an account whose balance dropped below its
// configured threshold.
type LowBalanceAlert struct {
	Account   int
	Balance   decimal.Decimal
	Threshold decimal.Decimal
}

// LowBalanceAlerts returns every armed account currently below threshold.
func (l *Ledger) LowBalanceAlerts() []LowBalanceAlert {
	l.mu.Lock()
	defer l.mu.Unlock()

	var alerts []LowBalanceAlert
	for _, acc := range l.accounts {
		if acc.LowBalanceAlertAt == nil {
			continue
		}
		if acc.Balance.LessThan(*acc.LowBalanceAlertAt) {
			alerts = append(alerts, LowBalanceAlert{
				Account:   acc.Number,
				Balance:   acc.Balance,
				Threshold: *acc.LowBalanceAlertAt,
			})
		}
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].Account < alerts[j].Account })
	return alerts
}
