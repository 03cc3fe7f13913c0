package admin

import "errors"

// Service errors
var (
	ErrTaskAlreadyReviewed = errors.New("task already reviewed")
	ErrCannotModifyAdmin   = errors.New("cannot modify an admin account")
)
