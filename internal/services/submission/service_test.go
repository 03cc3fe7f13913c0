package submission

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigpay/internal/models"
	"gigpay/internal/repositories/repositorytest"
	"gigpay/internal/services/authz"
	"gigpay/internal/services/ledger"
)

type fixture struct {
	svc      Service
	store    *repositorytest.Store
	platform *models.User
	creator  *models.User
	worker   *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repositorytest.NewStore()
	ledgerSvc := ledger.NewService(store.UnitOfWork(), nil, nil, ledger.DefaultConfig())
	svc := NewService(store.UnitOfWork(), ledgerSvc, nil, DefaultConfig())
	return &fixture{
		svc:      svc,
		store:    store,
		platform: store.SeedSystemUser(),
		creator:  store.SeedUser(models.RoleCreator),
		worker:   store.SeedUser(models.RoleWorker),
	}
}

func (f *fixture) creatorActor() authz.Actor {
	return authz.Actor{ID: f.creator.ID, Role: models.RoleCreator}
}

func TestCreateSubmission(t *testing.T) {
	ctx := context.Background()

	t.Run("claims a slot and snapshots the reward", func(t *testing.T) {
		f := newFixture(t)
		task := f.store.SeedTask(f.creator.ID, decimal.NewFromInt(100), 3)

		sub, err := f.svc.Create(ctx, f.worker.ID, task.ID, "done, see screenshot", "")
		require.NoError(t, err)
		assert.Equal(t, models.SubmissionStatusPending, sub.Status)
		assert.True(t, sub.Reward.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, 2, f.store.Task(task.ID).AvailableSlots)
	})

	t.Run("requires proof", func(t *testing.T) {
		f := newFixture(t)
		task := f.store.SeedTask(f.creator.ID, decimal.NewFromInt(100), 3)

		_, err := f.svc.Create(ctx, f.worker.ID, task.ID, "", "")
		assert.ErrorIs(t, err, ErrEmptyProof)
	})

	t.Run("creators cannot work their own tasks", func(t *testing.T) {
		f := newFixture(t)
		task := f.store.SeedTask(f.creator.ID, decimal.NewFromInt(100), 3)

		_, err := f.svc.Create(ctx, f.creator.ID, task.ID, "proof", "")
		assert.ErrorIs(t, err, ErrOwnTask)
	})

	t.Run("one submission per worker per task", func(t *testing.T) {
		f := newFixture(t)
		task := f.store.SeedTask(f.creator.ID, decimal.NewFromInt(100), 3)

		_, err := f.svc.Create(ctx, f.worker.ID, task.ID, "proof", "")
		require.NoError(t, err)
		_, err = f.svc.Create(ctx, f.worker.ID, task.ID, "proof again", "")
		assert.ErrorIs(t, err, ErrAlreadySubmitted)

		// The rejected duplicate must not leak a claimed slot.
		assert.Equal(t, 2, f.store.Task(task.ID).AvailableSlots)
	})

	t.Run("last slot completes the task", func(t *testing.T) {
		f := newFixture(t)
		task := f.store.SeedTask(f.creator.ID, decimal.NewFromInt(100), 1)

		_, err := f.svc.Create(ctx, f.worker.ID, task.ID, "proof", "")
		require.NoError(t, err)

		got := f.store.Task(task.ID)
		assert.Equal(t, 0, got.AvailableSlots)
		assert.Equal(t, models.TaskStatusCompleted, got.Status)

		other := f.store.SeedUser(models.RoleWorker)
		_, err = f.svc.Create(ctx, other.ID, task.ID, "proof", "")
		assert.ErrorIs(t, err, ErrTaskNotAvailable)
	})
}

func TestConcurrentSubmissionsForLastSlots(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := f.store.SeedTask(f.creator.ID, decimal.NewFromInt(100), 2)

	const workers = 8
	ids := make([]uint, workers)
	for i := range ids {
		ids[i] = f.store.SeedUser(models.RoleWorker).ID
	}

	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Create(ctx, ids[i], task.ID, "proof", "")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 2, succeeded, "exactly as many submissions as slots")
	assert.Equal(t, 0, f.store.Task(task.ID).AvailableSlots)
}

func TestApprove(t *testing.T) {
	ctx := context.Background()

	t.Run("pays the worker minus commission", func(t *testing.T) {
		f := newFixture(t)
		task := f.store.SeedTask(f.creator.ID, decimal.NewFromInt(100), 3)
		sub, err := f.svc.Create(ctx, f.worker.ID, task.ID, "proof", "")
		require.NoError(t, err)

		rating := 4
		result, err := f.svc.Approve(ctx, f.creatorActor(), sub.ID, &rating, "nice work")
		require.NoError(t, err)
		assert.True(t, result.WorkerPayout.Equal(decimal.NewFromInt(95)))
		assert.True(t, result.Commission.Equal(decimal.NewFromInt(5)))
		assert.True(t, result.Submission.IsPaid)

		assert.True(t, f.store.Wallet(f.worker.ID).Balance.Equal(decimal.NewFromInt(95)))
		assert.True(t, f.store.Wallet(f.platform.ID).Balance.Equal(decimal.NewFromInt(5)))

		worker := f.store.User(f.worker.ID)
		assert.Equal(t, 1, worker.Statistics.TasksCompleted)
		assert.Equal(t, 1, worker.Statistics.TotalRatings)
		assert.Equal(t, 4.0, worker.Statistics.Rating)
	})

	t.Run("commission rounds to four places", func(t *testing.T) {
		f := newFixture(t)
		task := f.store.SeedTask(f.creator.ID, decimal.RequireFromString("33.33"), 3)
		sub, err := f.svc.Create(ctx, f.worker.ID, task.ID, "proof", "")
		require.NoError(t, err)

		result, err := f.svc.Approve(ctx, f.creatorActor(), sub.ID, nil, "")
		require.NoError(t, err)
		assert.True(t, result.Commission.Equal(decimal.RequireFromString("1.6665")))
		assert.True(t, result.WorkerPayout.Equal(decimal.RequireFromString("31.6635")))
		assert.True(t, result.WorkerPayout.Add(result.Commission).Equal(sub.Reward),
			"payout and commission must sum to the reward")
	})

	t.Run("rating bounds", func(t *testing.T) {
		f := newFixture(t)
		task := f.store.SeedTask(f.creator.ID, decimal.NewFromInt(100), 3)
		sub, err := f.svc.Create(ctx, f.worker.ID, task.ID, "proof", "")
		require.NoError(t, err)

		for _, rating := range []int{0, 6, -1} {
			r := rating
			_, err := f.svc.Approve(ctx, f.creatorActor(), sub.ID, &r, "")
			assert.ErrorIs(t, err, ErrInvalidRating)
		}
	})

	t.Run("only the task owner or an admin may review", func(t *testing.T) {
		f := newFixture(t)
		task := f.store.SeedTask(f.creator.ID, decimal.NewFromInt(100), 3)
		sub, err := f.svc.Create(ctx, f.worker.ID, task.ID, "proof", "")
		require.NoError(t, err)

		stranger := authz.Actor{ID: f.worker.ID, Role: models.RoleWorker}
		_, err = f.svc.Approve(ctx, stranger, sub.ID, nil, "")
		assert.ErrorIs(t, err, authz.ErrForbidden)

		otherCreator := f.store.SeedUser(models.RoleCreator)
		_, err = f.svc.Approve(ctx, authz.Actor{ID: otherCreator.ID, Role: models.RoleCreator}, sub.ID, nil, "")
		assert.ErrorIs(t, err, authz.ErrForbidden)

		admin := f.store.SeedUser(models.RoleAdmin)
		_, err = f.svc.Approve(ctx, authz.Actor{ID: admin.ID, Role: models.RoleAdmin}, sub.ID, nil, "")
		assert.NoError(t, err)
	})

	t.Run("a submission resolves exactly once", func(t *testing.T) {
		f := newFixture(t)
		task := f.store.SeedTask(f.creator.ID, decimal.NewFromInt(100), 3)
		sub, err := f.svc.Create(ctx, f.worker.ID, task.ID, "proof", "")
		require.NoError(t, err)

		_, err = f.svc.Approve(ctx, f.creatorActor(), sub.ID, nil, "")
		require.NoError(t, err)
		_, err = f.svc.Approve(ctx, f.creatorActor(), sub.ID, nil, "")
		assert.ErrorIs(t, err, ErrAlreadyApproved)
		_, err = f.svc.Reject(ctx, f.creatorActor(), sub.ID, "changed my mind")
		assert.ErrorIs(t, err, ErrAlreadyApproved)

		// Paid exactly once.
		assert.True(t, f.store.Wallet(f.worker.ID).Balance.Equal(decimal.NewFromInt(95)))
	})
}

func TestReject(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the slot and records the reason", func(t *testing.T) {
		f := newFixture(t)
		task := f.store.SeedTask(f.creator.ID, decimal.NewFromInt(100), 1)
		sub, err := f.svc.Create(ctx, f.worker.ID, task.ID, "proof", "")
		require.NoError(t, err)
		require.Equal(t, models.TaskStatusCompleted, f.store.Task(task.ID).Status)

		rejected, err := f.svc.Reject(ctx, f.creatorActor(), sub.ID, "blurry screenshot")
		require.NoError(t, err)
		assert.Equal(t, models.SubmissionStatusRejected, rejected.Status)
		assert.Equal(t, "blurry screenshot", rejected.RejectionReason)
		assert.True(t, f.store.Wallet(f.worker.ID).Balance.IsZero())

		// The slot comes back and the task reopens.
		got := f.store.Task(task.ID)
		assert.Equal(t, 1, got.AvailableSlots)
		assert.Equal(t, models.TaskStatusActive, got.Status)
	})

	t.Run("double reject releases only one slot", func(t *testing.T) {
		f := newFixture(t)
		task := f.store.SeedTask(f.creator.ID, decimal.NewFromInt(100), 2)
		sub, err := f.svc.Create(ctx, f.worker.ID, task.ID, "proof", "")
		require.NoError(t, err)

		_, err = f.svc.Reject(ctx, f.creatorActor(), sub.ID, "no")
		require.NoError(t, err)
		_, err = f.svc.Reject(ctx, f.creatorActor(), sub.ID, "still no")
		assert.ErrorIs(t, err, ErrAlreadyRejected)
		assert.Equal(t, 2, f.store.Task(task.ID).AvailableSlots)
	})
}

func TestViewAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := f.store.SeedTask(f.creator.ID, decimal.NewFromInt(100), 3)
	sub, err := f.svc.Create(ctx, f.worker.ID, task.ID, "proof", "")
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, authz.Actor{ID: f.worker.ID, Role: models.RoleWorker}, sub.ID)
	assert.NoError(t, err, "the submitting worker can view")
	_, err = f.svc.Get(ctx, f.creatorActor(), sub.ID)
	assert.NoError(t, err, "the task owner can view")

	stranger := f.store.SeedUser(models.RoleWorker)
	_, err = f.svc.Get(ctx, authz.Actor{ID: stranger.ID, Role: models.RoleWorker}, sub.ID)
	assert.ErrorIs(t, err, authz.ErrForbidden)

	mine, err := f.svc.GetMine(ctx, f.worker.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, mine.ID)
}
