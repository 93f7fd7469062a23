package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Action is the kind of ledger event recorded in transactions.csv.
type Action string

const (
	ActionCreate       Action = "CREATE"
	ActionDeposit      Action = "DEPOSIT"
	ActionWithdraw     Action = "WITHDRAW"
	ActionTransferOut  Action = "TRANSFER_OUT"
	ActionTransferIn   Action = "TRANSFER_IN"
	ActionOverdraftFee Action = "OVERDRAFT_FEE"
	ActionReversal     Action = "REVERSAL"
)

// Credit reports whether the action increased the account balance.
func (a Action) Credit() bool {
	return a == ActionDeposit || a == ActionTransferIn
}

// Debit reports whether the action decreased the account balance.
func (a Action) Debit() bool {
	return a == ActionWithdraw || a == ActionTransferOut
}

// Transaction is one append-only row in transactions.csv. Rows are created
// once and never mutated; a reversal is a new compensating row.
type Transaction struct {
	ID           string // uuid, assigned on append
	Timestamp    time.Time
	Account      int
	Action       Action
	Amount       decimal.Decimal // positive magnitude of the primitive action
	BalanceAfter decimal.Decimal
	Note         string
}
