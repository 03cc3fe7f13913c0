package repositories

import "errors"

// Repository errors
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrTaskNotFound        = errors.New("task not found")
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuplicateSubmission = errors.New("submission already exists for this task and worker")
	ErrDuplicateEmail      = errors.New("email already registered")

	// ErrVersionConflict signals that a conditional wallet update matched no
	// rows because another writer advanced the version first. Callers retry
	// the whole read-modify-write unit.
	ErrVersionConflict = errors.New("wallet version conflict")
)
