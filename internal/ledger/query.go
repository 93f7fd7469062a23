package ledger

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gdbank-dev/gdbank/internal/model"
)

// Read-only views. All return copies; nothing handed out can mutate
// ledger state.

// Get returns a copy of an account.
func (l *Ledger) Get(number int) (model.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, err := l.get(number)
	if err != nil {
		return model.Account{}, err
	}
	return *acc, nil
}

// Accounts returns copies of every account, sorted by number.
func (l *Ledger) Accounts() []model.Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot(func(*model.Account) bool { return true })
}

// ListByStatus returns copies of accounts with the given status, sorted
// by number.
func (l *Ledger) ListByStatus(status model.AccountStatus) []model.Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot(func(a *model.Account) bool { return a.Status == status })
}

// SearchByName returns accounts whose name contains the query,
// case-insensitively.
func (l *Ledger) SearchByName(query string) []model.Account {
	l.mu.Lock()
	defer l.mu.Unlock()

	query = strings.ToLower(strings.TrimSpace(query))
	return l.snapshot(func(a *model.Account) bool {
		return query != "" && strings.Contains(strings.ToLower(a.Name), query)
	})
}

func (l *Ledger) snapshot(keep func(*model.Account) bool) []model.Account {
	var out []model.Account
	for _, acc := range l.accounts {
		if keep(acc) {
			out = append(out, *acc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// CountActive returns the number of active accounts.
func (l *Ledger) CountActive() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, acc := range l.accounts {
		if acc.IsActive() {
			n++
		}
	}
	return n
}

// AverageBalance returns the mean balance across all accounts, zero when
// the ledger is empty.
func (l *Ledger) AverageBalance() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.accounts) == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, acc := range l.accounts {
		total = total.Add(acc.Balance)
	}
	return total.Div(decimal.NewFromInt(int64(len(l.accounts)))).Round(2)
}

// Youngest returns the account with the lowest holder age.
func (l *Ledger) Youngest() (model.Account, bool) {
	return l.extremeByAge(func(candidate, best int) bool { return candidate < best })
}

// Oldest returns the account with the highest holder age.
func (l *Ledger) Oldest() (model.Account, bool) {
	return l.extremeByAge(func(candidate, best int) bool { return candidate > best })
}

func (l *Ledger) extremeByAge(better func(candidate, best int) bool) (model.Account, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var best *model.Account
	for _, acc := range l.accounts {
		if best == nil || better(acc.Age, best.Age) {
			best = acc
		}
	}
	if best == nil {
		return model.Account{}, false
	}
	return *best, true
}

// TopByBalance returns up to n accounts sorted by balance, highest first.
func (l *Ledger) TopByBalance(n int) []model.Account {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := l.snapshot(func(*model.Account) bool { return true })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Balance.GreaterThan(out[j].Balance) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Summary aggregates totals for the operator exit report.
type Summary struct {
	TotalAccounts  int
	ActiveAccounts int
	ClosedAccounts int
	TotalBalance   decimal.Decimal
}

// Summarize returns current ledger totals.
func (l *Ledger) Summarize() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Summary{TotalAccounts: len(l.accounts), TotalBalance: decimal.Zero}
	for _, acc := range l.accounts {
		s.TotalBalance = s.TotalBalance.Add(acc.Balance)
		if acc.IsActive() {
			s.ActiveAccounts++
		}
	}
	s.ClosedAccounts = s.TotalAccounts - s.ActiveAccounts
	return s
}

// DeleteAll removes every account. The number allocator keeps advancing,
// so deleted numbers are never reissued. Admin gating happens at the
// caller; the transaction log is left intact.
func (l *Ledger) DeleteAll() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.accounts)
	l.accounts = make(map[int]*model.Account)
	return n
}
