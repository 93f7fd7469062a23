package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScheduledTransfer is a one-shot transfer job. It is removed from the
// pending set once executed, whether or not the transfer succeeded.
type ScheduledTransfer struct {
	From      int
	To        int
	Amount    decimal.Decimal
	ExecuteAt time.Time
	CreatedAt time.Time
}

// RecurringPayment re-arms itself after each due execution: NextRun
// advances by IntervalDays regardless of transfer outcome. It persists
// until cancelled by index.
type RecurringPayment struct {
	From         int
	To           int
	Amount       decimal.Decimal
	IntervalDays int
	NextRun      time.Time
	CreatedAt    time.Time
}

// Beneficiary links an owner account to a saved destination account,
// unique per (owner, account) pair.
type Beneficiary struct {
	Owner    int
	Account  int
	Nickname string
}
