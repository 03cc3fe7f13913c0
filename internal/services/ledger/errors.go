package ledger

import "errors"

// Service errors
var (
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrInsufficientBalance     = errors.New("insufficient balance")
	ErrAmountBelowMinimum      = errors.New("amount below minimum withdrawal")
	ErrInvalidWithdrawalMethod = errors.New("invalid withdrawal method")
	ErrDailyLimitReached       = errors.New("daily limit reached")
	ErrNotWithdrawal           = errors.New("transaction is not a withdrawal")
	ErrAlreadyProcessed        = errors.New("withdrawal already processed")

	// ErrTransientFailure is surfaced after the bounded retry budget for
	// version conflicts is exhausted. Callers may try again.
	ErrTransientFailure = errors.New("transient failure, try again")
)
