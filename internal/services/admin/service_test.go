package admin

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
	"gigpay/internal/services/ledger"
	"gigpay/internal/services/submission"
)

type fixture struct {
	svc     Service
	ledger  ledger.Service
	store   *repositorytest.Store
	admin   authz.Actor
	creator *models.User
	worker  *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repositorytest.NewStore()
	ledgerSvc := ledger.NewService(store.UnitOfWork(), nil, nil, ledger.DefaultConfig())
	store.SeedSystemUser()
	adminUser := store.SeedUser(models.RoleAdmin)
	return &fixture{
		svc:     NewService(store.UnitOfWork(), ledgerSvc, nil),
		ledger:  ledgerSvc,
		store:   store,
		admin:   authz.Actor{ID: adminUser.ID, Role: models.RoleAdmin},
		creator: store.SeedUser(models.RoleCreator),
		worker:  store.SeedUser(models.RoleWorker),
	}
}

func TestModerationRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	creatorActor := authz.Actor{ID: f.creator.ID, Role: models.RoleCreator}

	_, err := f.svc.ApproveUser(ctx, creatorActor, f.worker.ID)
	assert.ErrorIs(t, err, authz.ErrForbidden)
	_, err = f.svc.GetDashboard(ctx, creatorActor)
	assert.ErrorIs(t, err, authz.ErrForbidden)
	_, _, err = f.svc.ListLogs(ctx, creatorActor, repositories.AdminLogFilter{})
	assert.ErrorIs(t, err, authz.ErrForbidden)
	_, err = f.svc.ApproveWithdrawal(ctx, creatorActor, 1, "")
	assert.ErrorIs(t, err, authz.ErrForbidden)
}

func TestUserModeration(t *testing.T) {
	ctx := context.Background()

	t.Run("approve and reject write audit entries", func(t *testing.T) {
		f := newFixture(t)

		user, err := f.svc.ApproveUser(ctx, f.admin, f.creator.ID)
		require.NoError(t, err)
		assert.True(t, user.IsApproved)

		rejected, err := f.svc.RejectUser(ctx, f.admin, f.worker.ID, "fraud signals")
		require.NoError(t, err)
		assert.False(t, rejected.IsApproved)
		assert.False(t, rejected.IsActive)

		logs := f.store.Logs()
		require.Len(t, logs, 2)
		assert.Equal(t, models.AdminActionApproveUser, logs[0].Action)
		assert.Equal(t, models.AdminActionRejectUser, logs[1].Action)
		assert.Equal(t, "fraud signals", logs[1].Metadata["reason"])
	})

	t.Run("admins cannot moderate admins", func(t *testing.T) {
		f := newFixture(t)
		other := f.store.SeedUser(models.RoleAdmin)

		_, err := f.svc.RejectUser(ctx, f.admin, other.ID, "coup")
		assert.ErrorIs(t, err, ErrCannotModifyAdmin)
	})
}

func TestTaskModeration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	pending := func() *models.Task {
		task := &models.Task{
			CreatorID:   f.creator.ID,
			Title:       "Survey",
			Description: "Fill the survey",
			Category:    "survey",
			Reward:      decimal.NewFromInt(10),
			TotalSlots:  5,
		}
		err := f.store.UnitOfWork().Do(ctx, func(r repositories.Repos) error {
			return r.Tasks.Create(ctx, task)
		})
		require.NoError(t, err)
		return task
	}

	t.Run("approval activates the task once", func(t *testing.T) {
		task := pending()

		approved, err := f.svc.ApproveTask(ctx, f.admin, task.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusActive, approved.Status)
		assert.True(t, approved.IsApproved)
		require.NotNil(t, approved.ApprovedByID)
		assert.Equal(t, f.admin.ID, *approved.ApprovedByID)

		_, err = f.svc.ApproveTask(ctx, f.admin, task.ID)
		assert.ErrorIs(t, err, ErrTaskAlreadyReviewed)
		_, err = f.svc.RejectTask(ctx, f.admin, task.ID, "no")
		assert.ErrorIs(t, err, ErrTaskAlreadyReviewed)
	})

	t.Run("rejection records the reason", func(t *testing.T) {
		task := pending()

		rejected, err := f.svc.RejectTask(ctx, f.admin, task.ID, "unpaid survey spam")
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusRejected, rejected.Status)
		assert.Equal(t, "unpaid survey spam", rejected.RejectionReason)
	})
}

func TestWithdrawalModeration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.SetBalance(f.worker.ID, decimal.NewFromInt(500))

	txn, err := f.ledger.RecordWithdrawalRequest(ctx, f.worker.ID, decimal.NewFromInt(200), "upi", "w@upi")
	require.NoError(t, err)

	settled, err := f.svc.ApproveWithdrawal(ctx, f.admin, txn.ID, "PAY-9")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, settled.Status)

	logs := f.store.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, models.AdminActionProcessWithdrawal, logs[0].Action)
	assert.Equal(t, "approved", logs[0].Metadata["decision"])

	_, err = f.svc.RejectWithdrawal(ctx, f.admin, txn.ID, "too late")
	assert.ErrorIs(t, err, ledger.ErrAlreadyProcessed)
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.store.UnitOfWork().Do(ctx, func(r repositories.Repos) error {
		return r.Users.SetApproval(ctx, f.creator.ID, true, true)
	})
	require.NoError(t, err)

	task := f.store.SeedTask(f.creator.ID, decimal.NewFromInt(100), 3)
	subSvc := submission.NewService(f.store.UnitOfWork(), f.ledger, nil, submission.DefaultConfig())
	sub, err := subSvc.Create(ctx, f.worker.ID, task.ID, "proof", "")
	require.NoError(t, err)
	_, err = subSvc.Approve(ctx, f.admin, sub.ID, nil, "")
	require.NoError(t, err)

	other := f.store.SeedUser(models.RoleWorker)
	_, err = subSvc.Create(ctx, other.ID, task.ID, "proof", "")
	require.NoError(t, err)

	d, err := f.svc.GetDashboard(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), d.TotalWorkers)
	assert.Equal(t, int64(1), d.TotalCreators)
	assert.Equal(t, int64(1), d.ActiveTasks)
	assert.Equal(t, int64(1), d.PendingSubmissions)
	assert.True(t, d.TotalPaidOut.Equal(decimal.NewFromInt(95)))
	assert.True(t, d.PlatformRevenue.Equal(decimal.NewFromInt(5)))
	assert.True(t, d.TotalWithdrawn.IsZero())
}
