// Package authz centralizes permission decisions so handlers and
// services share one set of rules instead of scattered role checks.
package authz

import (
	"errors"

	"gigpay/internal/models"
)

// ErrForbidden is returned whenever an actor lacks permission.
var ErrForbidden = errors.New("forbidden")

// Actor is the minimal identity permission checks need.
type Actor struct {
	ID   uint
	Role string
}

func (a Actor) isAdmin() bool { return a.Role == models.RoleAdmin }

// CanCreateTask allows creators and admins to post tasks.
func CanCreateTask(actor Actor) bool {
	return actor.Role == models.RoleCreator || actor.isAdmin()
}

// CanManageTask allows the owning creator or an admin to edit, pause or
// delete a task.
func CanManageTask(actor Actor, task *models.Task) bool {
	return actor.isAdmin() || actor.ID == task.CreatorID
}

// CanReviewSubmission allows the task's creator or an admin to approve
// or reject submissions against it.
func CanReviewSubmission(actor Actor, task *models.Task) bool {
	return actor.isAdmin() || actor.ID == task.CreatorID
}

// CanModerate gates admin-only operations: user approval, task
// approval, withdrawal processing, dashboard and audit log access.
func CanModerate(actor Actor) bool {
	return actor.isAdmin()
}

// CanApproveWithdrawal gates withdrawal settlement.
func CanApproveWithdrawal(actor Actor) bool {
	return actor.isAdmin()
}

// CanViewSubmission allows the submitting worker, the task creator or
// an admin to read a submission.
func CanViewSubmission(actor Actor, sub *models.Submission, task *models.Task) bool {
	return actor.isAdmin() || actor.ID == sub.WorkerID || actor.ID == task.CreatorID
}
