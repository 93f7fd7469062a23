package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

const dayStampFormat = "2006-01-02"

type dailyKey struct {
	account int
	day     string
}

// dailyTracker sums the absolute amounts of an account's transactions per
// day stamp. Entries older than two days are dropped on every record so
// the map stays bounded.
type dailyTracker struct {
	totals map[dailyKey]decimal.Decimal
}

func newDailyTracker() *dailyTracker {
	return &dailyTracker{totals: make(map[dailyKey]decimal.Decimal)}
}

// wouldExceed reports whether adding amount to the account's running total
// for now's day stamp would exceed limit.
func (d *dailyTracker) wouldExceed(account int, now time.Time, amount, limit decimal.Decimal) bool {
	key := dailyKey{account, now.Format(dayStampFormat)}
	return d.totals[key].Add(amount.Abs()).GreaterThan(limit)
}

// record adds amount to the account's running total and evicts stale days.
func (d *dailyTracker) record(account int, now time.Time, amount decimal.Decimal) {
	key := dailyKey{account, now.Format(dayStampFormat)}
	d.totals[key] = d.totals[key].Add(amount.Abs())

	cutoff := now.AddDate(0, 0, -2).Format(dayStampFormat)
	for k := range d.totals {
		if k.day < cutoff {
			delete(d.totals, k)
		}
	}
}
