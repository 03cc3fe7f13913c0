package submission

import "errors"

// Service errors
var (
	ErrTaskNotAvailable = errors.New("task is not open for submissions")
	ErrSlotsExhausted   = errors.New("no slots available")
	ErrAlreadySubmitted = errors.New("already submitted to this task")
	ErrOwnTask          = errors.New("cannot submit to your own task")
	ErrAlreadyApproved  = errors.New("submission already approved")
	ErrAlreadyRejected  = errors.New("submission already rejected")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrEmptyProof       = errors.New("proof is required")
)
