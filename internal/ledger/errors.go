package ledger

import "errors"

// Domain errors returned by ledger operations. Business-rule failures are
// always returned as values, never panics, so the CLI layer can print a
// message and keep its interaction loop running. Callers match with
// errors.Is.
var (
	// ErrAccountNotFound means no account exists for the given number.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountInactive means the account's status rejects the operation.
	ErrAccountInactive = errors.New("account is not active")

	// ErrAccountLocked means the lock flag rejects the operation,
	// regardless of status.
	ErrAccountLocked = errors.New("account is locked")

	// ErrInvalidAmount means the amount is zero or negative.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrDepositCapExceeded means the amount exceeds the
	// single-transaction deposit cap.
	ErrDepositCapExceeded = errors.New("deposit exceeds single-transaction cap")

	// ErrInsufficientFunds means the debit would breach the account
	// type's minimum balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDailyLimitExceeded means the day's running total plus this
	// amount would exceed the daily limit.
	ErrDailyLimitExceeded = errors.New("daily transaction limit exceeded")

	// ErrUnderage means the applicant is younger than 18.
	ErrUnderage = errors.New("age must be 18 or above")

	// ErrInvalidAccountType means the account type is not recognized.
	ErrInvalidAccountType = errors.New("invalid account type")

	// ErrBelowMinimumOpening means the initial deposit is below the
	// account type's minimum balance.
	ErrBelowMinimumOpening = errors.New("initial deposit below minimum balance")

	// ErrInvalidPIN means the PIN fails the length requirement.
	ErrInvalidPIN = errors.New("PIN must be at least 4 characters")

	// ErrSameAccount means source and destination are the same account.
	ErrSameAccount = errors.New("source and destination accounts are the same")

	// ErrNotReversible means the last transaction's action has no
	// compensating operation.
	ErrNotReversible = errors.New("transaction cannot be reversed")

	// ErrUnsupportedCurrency means the currency code has no configured rate.
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)
