package task

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigpay/internal/models"
	"gigpay/internal/repositories"
	"gigpay/internal/repositories/repositorytest"
	"gigpay/internal/services/authz"
)

func newTestService(t *testing.T) (Service, *repositorytest.Store) {
	t.Helper()
	store := repositorytest.NewStore()
	return NewService(store.UnitOfWork()), store
}

func actorFor(u *models.User) authz.Actor {
	return authz.Actor{ID: u.ID, Role: u.Role}
}

func validCreate() CreateRequest {
	return CreateRequest{
		Title:       "Transcribe receipts",
		Description: "Type out the attached receipts",
		Category:    "data-entry",
		Reward:      decimal.NewFromInt(20),
		TotalSlots:  5,
	}
}

func TestCreateTask(t *testing.T) {
	ctx := context.Background()

	t.Run("new tasks await admin approval", func(t *testing.T) {
		svc, store := newTestService(t)
		creator := store.SeedUser(models.RoleCreator)

		task, err := svc.Create(ctx, actorFor(creator), validCreate())
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusPending, task.Status)
		assert.False(t, task.IsApproved)
		assert.Equal(t, 5, task.AvailableSlots)
		assert.Equal(t, 1, store.User(creator.ID).Statistics.TasksCreated)
	})

	t.Run("workers cannot post tasks", func(t *testing.T) {
		svc, store := newTestService(t)
		worker := store.SeedUser(models.RoleWorker)

		_, err := svc.Create(ctx, actorFor(worker), validCreate())
		assert.ErrorIs(t, err, authz.ErrForbidden)
	})

	t.Run("unapproved creators cannot post", func(t *testing.T) {
		svc, store := newTestService(t)
		creator := store.SeedUser(models.RoleCreator)
		err := store.UnitOfWork().Do(ctx, func(r repositories.Repos) error {
			return r.Users.SetApproval(ctx, creator.ID, false, true)
		})
		require.NoError(t, err)

		_, err = svc.Create(ctx, actorFor(creator), validCreate())
		assert.ErrorIs(t, err, ErrNotApproved)
	})

	t.Run("validation", func(t *testing.T) {
		svc, store := newTestService(t)
		creator := store.SeedUser(models.RoleCreator)

		req := validCreate()
		req.Reward = decimal.Zero
		_, err := svc.Create(ctx, actorFor(creator), req)
		assert.ErrorIs(t, err, ErrInvalidReward)

		req = validCreate()
		req.TotalSlots = 0
		_, err = svc.Create(ctx, actorFor(creator), req)
		assert.ErrorIs(t, err, ErrInvalidSlots)

		req = validCreate()
		req.Category = "gardening"
		_, err = svc.Create(ctx, actorFor(creator), req)
		assert.ErrorIs(t, err, ErrInvalidCategory)

		req = validCreate()
		req.Category = ""
		task, err := svc.Create(ctx, actorFor(creator), req)
		require.NoError(t, err)
		assert.Equal(t, "other", task.Category)
	})
}

func TestUpdateTask(t *testing.T) {
	ctx := context.Background()

	t.Run("owner edits fields", func(t *testing.T) {
		svc, store := newTestService(t)
		creator := store.SeedUser(models.RoleCreator)
		task := store.SeedTask(creator.ID, decimal.NewFromInt(20), 5)

		title := "Updated title"
		reward := decimal.NewFromInt(30)
		updated, err := svc.Update(ctx, actorFor(creator), task.ID, UpdateRequest{Title: &title, Reward: &reward})
		require.NoError(t, err)
		assert.Equal(t, "Updated title", updated.Title)
		assert.True(t, updated.Reward.Equal(decimal.NewFromInt(30)))
	})

	t.Run("resizing keeps used slots", func(t *testing.T) {
		svc, store := newTestService(t)
		creator := store.SeedUser(models.RoleCreator)
		task := store.SeedTask(creator.ID, decimal.NewFromInt(20), 5)

		// Simulate two claimed slots.
		err := store.UnitOfWork().Do(ctx, func(r repositories.Repos) error {
			for i := 0; i < 2; i++ {
				if _, err := r.Tasks.ClaimSlot(ctx, task.ID); err != nil {
					return err
				}
			}
			return nil
		})
		require.NoError(t, err)

		ten := 10
		updated, err := svc.Update(ctx, actorFor(creator), task.ID, UpdateRequest{TotalSlots: &ten})
		require.NoError(t, err)
		assert.Equal(t, 10, updated.TotalSlots)
		assert.Equal(t, 8, updated.AvailableSlots)

		one := 1
		_, err = svc.Update(ctx, actorFor(creator), task.ID, UpdateRequest{TotalSlots: &one})
		assert.ErrorIs(t, err, ErrSlotShrink)
	})

	t.Run("only the owner or an admin", func(t *testing.T) {
		svc, store := newTestService(t)
		creator := store.SeedUser(models.RoleCreator)
		other := store.SeedUser(models.RoleCreator)
		admin := store.SeedUser(models.RoleAdmin)
		task := store.SeedTask(creator.ID, decimal.NewFromInt(20), 5)

		title := "hijacked"
		_, err := svc.Update(ctx, actorFor(other), task.ID, UpdateRequest{Title: &title})
		assert.ErrorIs(t, err, authz.ErrForbidden)

		_, err = svc.Update(ctx, actorFor(admin), task.ID, UpdateRequest{Title: &title})
		assert.NoError(t, err)
	})

	t.Run("terminal tasks are frozen", func(t *testing.T) {
		svc, store := newTestService(t)
		creator := store.SeedUser(models.RoleCreator)
		task := store.SeedTask(creator.ID, decimal.NewFromInt(20), 5)

		err := store.UnitOfWork().Do(ctx, func(r repositories.Repos) error {
			_, err := r.Tasks.UpdateStatusIf(ctx, task.ID, []string{models.TaskStatusActive},
				map[string]interface{}{"status": models.TaskStatusRejected})
			return err
		})
		require.NoError(t, err)

		title := "too late"
		_, err = svc.Update(ctx, actorFor(creator), task.ID, UpdateRequest{Title: &title})
		assert.ErrorIs(t, err, ErrNotEditable)
	})
}

func TestPauseResume(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	creator := store.SeedUser(models.RoleCreator)
	task := store.SeedTask(creator.ID, decimal.NewFromInt(20), 5)

	paused, err := svc.SetPaused(ctx, actorFor(creator), task.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusPaused, paused.Status)

	// Pausing a paused task has nothing to flip.
	_, err = svc.SetPaused(ctx, actorFor(creator), task.ID, true)
	assert.ErrorIs(t, err, ErrNotEditable)

	resumed, err := svc.SetPaused(ctx, actorFor(creator), task.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusActive, resumed.Status)
}

func TestDeleteTask(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	creator := store.SeedUser(models.RoleCreator)
	worker := store.SeedUser(models.RoleWorker)
	task := store.SeedTask(creator.ID, decimal.NewFromInt(20), 5)

	err := store.UnitOfWork().Do(ctx, func(r repositories.Repos) error {
		return r.Submissions.Create(ctx, &models.Submission{
			TaskID:   task.ID,
			WorkerID: worker.ID,
			Proof:    "proof",
			Reward:   task.Reward,
			Status:   models.SubmissionStatusPending,
		})
	})
	require.NoError(t, err)

	err = svc.Delete(ctx, actorFor(creator), task.ID)
	assert.ErrorIs(t, err, ErrNotEditable, "tasks with submissions keep their history")

	empty := store.SeedTask(creator.ID, decimal.NewFromInt(20), 5)
	require.NoError(t, svc.Delete(ctx, actorFor(creator), empty.ID))
	_, err = svc.Get(ctx, empty.ID)
	assert.ErrorIs(t, err, repositories.ErrTaskNotFound)
}

func TestListAvailable(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	creator := store.SeedUser(models.RoleCreator)

	open := store.SeedTask(creator.ID, decimal.NewFromInt(20), 5)
	full := store.SeedTask(creator.ID, decimal.NewFromInt(20), 1)
	err := store.UnitOfWork().Do(ctx, func(r repositories.Repos) error {
		_, err := r.Tasks.ClaimSlot(ctx, full.ID)
		return err
	})
	require.NoError(t, err)

	// Pending tasks are invisible to workers.
	_, err = svc.Create(ctx, actorFor(creator), validCreate())
	require.NoError(t, err)

	tasks, total, err := svc.ListAvailable(ctx, "", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, tasks, 1)
	assert.Equal(t, open.ID, tasks[0].ID)
}
