package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gigpay/internal/models"
)

func TestPredicates(t *testing.T) {
	worker := Actor{ID: 1, Role: models.RoleWorker}
	creator := Actor{ID: 2, Role: models.RoleCreator}
	otherCreator := Actor{ID: 3, Role: models.RoleCreator}
	admin := Actor{ID: 4, Role: models.RoleAdmin}

	task := &models.Task{ID: 10, CreatorID: creator.ID}
	sub := &models.Submission{ID: 20, TaskID: task.ID, WorkerID: worker.ID}

	t.Run("create task", func(t *testing.T) {
		assert.False(t, CanCreateTask(worker))
		assert.True(t, CanCreateTask(creator))
		assert.True(t, CanCreateTask(admin))
	})

	t.Run("manage and review follow task ownership", func(t *testing.T) {
		assert.True(t, CanManageTask(creator, task))
		assert.False(t, CanManageTask(otherCreator, task))
		assert.False(t, CanManageTask(worker, task))
		assert.True(t, CanManageTask(admin, task))

		assert.True(t, CanReviewSubmission(creator, task))
		assert.False(t, CanReviewSubmission(otherCreator, task))
		assert.True(t, CanReviewSubmission(admin, task))
	})

	t.Run("moderation is admin only", func(t *testing.T) {
		assert.False(t, CanModerate(creator))
		assert.False(t, CanModerate(worker))
		assert.True(t, CanModerate(admin))

		assert.False(t, CanApproveWithdrawal(creator))
		assert.True(t, CanApproveWithdrawal(admin))
	})

	t.Run("submission visibility", func(t *testing.T) {
		assert.True(t, CanViewSubmission(worker, sub, task), "submitting worker")
		assert.True(t, CanViewSubmission(creator, sub, task), "task owner")
		assert.True(t, CanViewSubmission(admin, sub, task))
		assert.False(t, CanViewSubmission(otherCreator, sub, task))
	})
}
