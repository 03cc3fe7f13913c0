package earning

import "errors"

// Service errors
var (
	ErrChallengeNotFound = errors.New("challenge expired or not found")
	ErrWrongAnswer       = errors.New("wrong answer")
	ErrInvalidReferral   = errors.New("invalid referral code")
	ErrSelfReferral      = errors.New("cannot refer yourself")
	ErrAlreadyReferred   = errors.New("referral already applied")
)
