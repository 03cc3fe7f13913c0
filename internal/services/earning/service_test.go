package earning

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigpay/internal/models"
	"gigpay/internal/repositories/repositorytest"
	"gigpay/internal/services/ledger"
	"gigpay/internal/services/notification"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification.Event
}

func (n *recordingNotifier) NotifyUser(userID uint, event notification.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) Broadcast(event notification.Event) {}

func newTestService(t *testing.T) (*service, *repositorytest.Store, *recordingNotifier) {
	t.Helper()
	store := repositorytest.NewStore()
	ledgerSvc := ledger.NewService(store.UnitOfWork(), nil, nil, ledger.DefaultConfig())
	notifier := &recordingNotifier{}
	svc := NewService(ledgerSvc, store.UnitOfWork(), NewMemoryChallengeStore(), notifier, DefaultPolicy()).(*service)
	return svc, store, notifier
}

func TestCaptcha(t *testing.T) {
	ctx := context.Background()

	t.Run("solve pays the captcha reward", func(t *testing.T) {
		svc, store, notifier := newTestService(t)
		worker := store.SeedUser(models.RoleWorker)
		svc.pick = func(n int) int { return 0 } // a=5, b=1

		challenge, err := svc.IssueCaptcha(ctx)
		require.NoError(t, err)
		assert.Equal(t, "5 + 1 = ?", challenge.Question)

		txn, err := svc.CompleteCaptcha(ctx, worker.ID, challenge.ID, 6)
		require.NoError(t, err)
		assert.True(t, txn.Amount.Equal(decimal.NewFromInt(2)))
		assert.Equal(t, models.TaskTypeCaptcha, txn.TaskType)
		assert.True(t, store.Wallet(worker.ID).Balance.Equal(decimal.NewFromInt(2)))

		require.Len(t, notifier.events, 1)
		assert.Equal(t, notification.EventWalletUpdated, notifier.events[0].Type)
	})

	t.Run("challenges are single use", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		worker := store.SeedUser(models.RoleWorker)
		svc.pick = func(n int) int { return 0 }

		challenge, err := svc.IssueCaptcha(ctx)
		require.NoError(t, err)

		_, err = svc.CompleteCaptcha(ctx, worker.ID, challenge.ID, 6)
		require.NoError(t, err)
		_, err = svc.CompleteCaptcha(ctx, worker.ID, challenge.ID, 6)
		assert.ErrorIs(t, err, ErrChallengeNotFound)
	})

	t.Run("wrong answer consumes the challenge without paying", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		worker := store.SeedUser(models.RoleWorker)
		svc.pick = func(n int) int { return 0 }

		challenge, err := svc.IssueCaptcha(ctx)
		require.NoError(t, err)

		_, err = svc.CompleteCaptcha(ctx, worker.ID, challenge.ID, 7)
		assert.ErrorIs(t, err, ErrWrongAnswer)
		_, err = svc.CompleteCaptcha(ctx, worker.ID, challenge.ID, 6)
		assert.ErrorIs(t, err, ErrChallengeNotFound)
		assert.True(t, store.Wallet(worker.ID).Balance.IsZero())
	})

	t.Run("unknown challenge id", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		worker := store.SeedUser(models.RoleWorker)

		_, err := svc.CompleteCaptcha(ctx, worker.ID, "nope", 6)
		assert.ErrorIs(t, err, ErrChallengeNotFound)
	})
}

func TestSpinWheel(t *testing.T) {
	ctx := context.Background()

	t.Run("prize comes from the wheel", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		worker := store.SeedUser(models.RoleWorker)
		svc.pick = func(n int) int { return 5 }

		result, err := svc.CompleteSpinWheel(ctx, worker.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(100), result.Prize)
		assert.True(t, result.Transaction.Amount.Equal(decimal.NewFromInt(100)))
		assert.Contains(t, svc.policy.SpinPrizes, result.Prize)
	})

	t.Run("three spins per day", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		worker := store.SeedUser(models.RoleWorker)
		svc.pick = func(n int) int { return 0 }

		for i := 0; i < 3; i++ {
			_, err := svc.CompleteSpinWheel(ctx, worker.ID)
			require.NoError(t, err)
		}
		_, err := svc.CompleteSpinWheel(ctx, worker.ID)
		assert.ErrorIs(t, err, ledger.ErrDailyLimitReached)
	})
}

func TestDailyLogin(t *testing.T) {
	ctx := context.Background()

	// Ledger counts today's entries against real time, so simulated past
	// days must be real past days.
	today := time.Now()

	t.Run("streak grows across consecutive days", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		worker := store.SeedUser(models.RoleWorker)

		atDay := func(daysAgo int) {
			day := today.AddDate(0, 0, -daysAgo)
			svc.now = func() time.Time { return day }
			store.SetClock(func() time.Time { return day })
		}

		atDay(2)
		result, err := svc.CompleteDailyLogin(ctx, worker.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Streak)
		assert.True(t, result.Reward.Equal(decimal.NewFromInt(10)))

		atDay(1)
		result, err = svc.CompleteDailyLogin(ctx, worker.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Streak)
		assert.True(t, result.Reward.Equal(decimal.NewFromInt(10)))

		atDay(0)
		result, err = svc.CompleteDailyLogin(ctx, worker.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, result.Streak)
		assert.True(t, result.Reward.Equal(decimal.NewFromInt(15)), "streak 3 earns the bonus")

		_, err = svc.CompleteDailyLogin(ctx, worker.ID)
		assert.ErrorIs(t, err, ledger.ErrDailyLimitReached)
		assert.Equal(t, 3, store.User(worker.ID).StreakCount)
	})

	t.Run("missing a day restarts the streak", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		worker := store.SeedUser(models.RoleWorker)

		twoDaysAgo := today.AddDate(0, 0, -2)
		svc.now = func() time.Time { return twoDaysAgo }
		store.SetClock(func() time.Time { return twoDaysAgo })
		result, err := svc.CompleteDailyLogin(ctx, worker.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Streak)

		svc.now = func() time.Time { return today }
		store.SetClock(func() time.Time { return today })
		result, err = svc.CompleteDailyLogin(ctx, worker.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Streak)
	})
}

func TestNextStreak(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	yesterday := now.AddDate(0, 0, -1)
	lastWeek := now.AddDate(0, 0, -7)
	earlier := now.Add(-2 * time.Hour)

	tests := []struct {
		name    string
		current int
		lastAt  *time.Time
		want    int
	}{
		{"first ever claim", 0, nil, 1},
		{"claimed yesterday", 4, &yesterday, 5},
		{"claimed earlier today", 4, &earlier, 4},
		{"lapsed streak", 9, &lastWeek, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextStreak(tt.current, tt.lastAt, now))
		})
	}
}

func TestLoginReward(t *testing.T) {
	policy := DefaultPolicy()
	assert.True(t, policy.loginReward(1).Equal(decimal.NewFromInt(10)))
	assert.True(t, policy.loginReward(2).Equal(decimal.NewFromInt(10)))
	assert.True(t, policy.loginReward(3).Equal(decimal.NewFromInt(15)))
	assert.True(t, policy.loginReward(6).Equal(decimal.NewFromInt(15)))
	assert.True(t, policy.loginReward(7).Equal(decimal.NewFromInt(25)), "streak 7 bonus replaces streak 3")
	assert.True(t, policy.loginReward(30).Equal(decimal.NewFromInt(25)))
}

func TestApplyReferral(t *testing.T) {
	ctx := context.Background()

	t.Run("pays both sides once", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		referrer := store.SeedUser(models.RoleWorker)
		invitee := store.SeedUser(models.RoleWorker)
		code := store.User(referrer.ID).ReferralCode

		txn, err := svc.ApplyReferral(ctx, invitee.ID, code)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionTypeReferral, txn.Type)
		assert.True(t, store.Wallet(invitee.ID).Balance.Equal(decimal.NewFromInt(50)))
		assert.True(t, store.Wallet(referrer.ID).Balance.Equal(decimal.NewFromInt(50)))

		_, err = svc.ApplyReferral(ctx, invitee.ID, code)
		assert.ErrorIs(t, err, ErrAlreadyReferred)
		assert.True(t, store.Wallet(invitee.ID).Balance.Equal(decimal.NewFromInt(50)))
	})

	t.Run("rejects self referral", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		worker := store.SeedUser(models.RoleWorker)
		code := store.User(worker.ID).ReferralCode

		_, err := svc.ApplyReferral(ctx, worker.ID, code)
		assert.ErrorIs(t, err, ErrSelfReferral)
	})

	t.Run("rejects unknown code", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		worker := store.SeedUser(models.RoleWorker)

		_, err := svc.ApplyReferral(ctx, worker.ID, "GPXXXX")
		assert.ErrorIs(t, err, ErrInvalidReferral)
	})
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	worker := store.SeedUser(models.RoleWorker)
	svc.pick = func(n int) int { return 0 }

	challenge, err := svc.IssueCaptcha(ctx)
	require.NoError(t, err)
	_, err = svc.CompleteCaptcha(ctx, worker.ID, challenge.ID, 6)
	require.NoError(t, err)
	_, err = svc.CompleteSpinWheel(ctx, worker.ID)
	require.NoError(t, err)

	status, err := svc.Status(ctx, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(49), status.CaptchaRemaining)
	assert.Equal(t, int64(2), status.SpinsRemaining)
	assert.True(t, status.DailyLoginAvailable)

	_, err = svc.CompleteDailyLogin(ctx, worker.ID)
	require.NoError(t, err)
	status, err = svc.Status(ctx, worker.ID)
	require.NoError(t, err)
	assert.False(t, status.DailyLoginAvailable)
}

func TestMemoryChallengeStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store := &memoryChallengeStore{
		entries: make(map[string]memoryEntry),
		now:     func() time.Time { return now },
	}

	require.NoError(t, store.Put(ctx, "c1", 12, 5*time.Minute))
	answer, ok, err := store.Take(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 12, answer)

	_, ok, err = store.Take(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "c2", 9, 5*time.Minute))
	now = now.Add(6 * time.Minute)
	_, ok, err = store.Take(ctx, "c2")
	require.NoError(t, err)
	assert.False(t, ok, "expired challenges are not answerable")
}
