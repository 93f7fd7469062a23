package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account and determines its minimum balance.
type AccountType string

const (
	TypeSavings AccountType = "Savings"
	TypeCurrent AccountType = "Current"
)

// MinimumBalance returns the floor an account of this type must keep after
// any debit. Zero for unknown types.
func (t AccountType) MinimumBalance() decimal.Decimal {
	switch t {
	case TypeSavings:
		return decimal.NewFromInt(500)
	case TypeCurrent:
		return decimal.NewFromInt(1000)
	}
	return decimal.Zero
}

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	return t == TypeSavings || t == TypeCurrent
}

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	StatusActive   AccountStatus = "Active"
	StatusInactive AccountStatus = "Inactive"
)

// MaxSingleDeposit is the single-transaction cap on deposits.
var MaxSingleDeposit = decimal.NewFromInt(100_000)

// OverdraftPolicy allows an account to go negative down to -Limit,
// charging Fee each time the allowance is used.
type OverdraftPolicy struct {
	Limit decimal.Decimal
	Fee   decimal.Decimal
}

// Account is a single bank account as persisted in accounts.csv.
// Balance-mutating callers go through the Ledger, which enforces locks,
// limits and overdraft policy on top of these fields.
type Account struct {
	Number    int
	Name      string
	Age       int
	Type      AccountType
	Balance   decimal.Decimal
	Status    AccountStatus
	PINHash   string // argon2id hash, empty when no PIN is set
	CreatedAt time.Time
	Currency  string // display currency code, does not change Balance's unit

	Locked            bool
	Overdraft         *OverdraftPolicy
	LowBalanceAlertAt *decimal.Decimal
}

// IsActive reports whether the account accepts balance-mutating operations
// as far as its status is concerned. The lock flag is checked separately.
func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}
