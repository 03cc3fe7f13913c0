package task

import "errors"

// Service errors
var (
	ErrInvalidReward   = errors.New("invalid reward")
	ErrInvalidSlots    = errors.New("invalid slot count")
	ErrInvalidCategory = errors.New("invalid category")
	ErrNotEditable     = errors.New("task is not editable")
	ErrSlotShrink      = errors.New("cannot shrink slots below used count")
	ErrAlreadyReviewed = errors.New("task already reviewed")
	ErrNotApproved     = errors.New("account pending approval")
)
