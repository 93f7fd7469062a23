package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/gdbank-dev/gdbank/internal/model"
)

// Account mutation primitives. These enforce the per-account invariants
// (amount validity, status, deposit cap, minimum balance); the Ledger
// layers cross-cutting policy (locks, daily limits, overdraft) on top.
// Nothing outside this package touches an account's balance.

func applyDeposit(acc *model.Account, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if amount.GreaterThan(model.MaxSingleDeposit) {
		return ErrDepositCapExceeded
	}
	if !acc.IsActive() {
		return ErrAccountInactive
	}
	acc.Balance = acc.Balance.Add(amount)
	return nil
}

func applyWithdraw(acc *model.Account, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !acc.IsActive() {
		return ErrAccountInactive
	}
	if acc.Balance.Sub(amount).LessThan(acc.Type.MinimumBalance()) {
		return ErrInsufficientFunds
	}
	acc.Balance = acc.Balance.Sub(amount)
	return nil
}

// forceWithdraw debits without the minimum-balance check. Used only on the
// overdraft path after the shortfall has been checked against the limit.
func forceWithdraw(acc *model.Account, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !acc.IsActive() {
		return ErrAccountInactive
	}
	acc.Balance = acc.Balance.Sub(amount)
	return nil
}
