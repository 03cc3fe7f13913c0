package repositories

import (
	"context"
	"time"

	"gigpay/internal/models"
)

// UserFilter narrows user listings.
type UserFilter struct {
	Role       string
	IsApproved *bool
	IsActive   *bool
	Limit      int
	Offset     int
}

// UserRepository handles user persistence. Wallet rows are owned by the
// ledger repository; user creation composes both through the unit of work.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByReferralCode(ctx context.Context, code string) (*models.User, error)
	GetSystemUser(ctx context.Context) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, filter UserFilter) ([]models.User, int64, error)
	Count(ctx context.Context, filter UserFilter) (int64, error)

	// SetApproval flips the admin approval/active flags.
	SetApproval(ctx context.Context, userID uint, approved, active bool) error

	// SetReferredBy links a referral exactly once; reports false if the user
	// was already referred.
	SetReferredBy(ctx context.Context, userID, referrerID uint) (bool, error)
	ListReferrals(ctx context.Context, referrerID uint) ([]models.User, error)

	// UpdateStreak writes the daily-login streak state.
	UpdateStreak(ctx context.Context, userID uint, streak int, at time.Time) error

	// ApplyReview increments tasksCompleted and, when rating is non-nil,
	// folds it into the running weighted mean. Both updates are single SQL
	// expressions so concurrent reviews cannot lose increments.
	ApplyReview(ctx context.Context, workerID uint, rating *int) error

	// IncrementTasksCreated bumps the creator statistic.
	IncrementTasksCreated(ctx context.Context, creatorID uint) error

	// TopWorkers / TopCreators back the leaderboard queries. sortBy is one of
	// "earnings", "tasks", "rating".
	TopWorkers(ctx context.Context, sortBy string, limit int) ([]WorkerRank, error)
	TopCreators(ctx context.Context, limit int) ([]models.User, error)
	CountWorkersAbove(ctx context.Context, user *models.User) (int64, error)
	CountCreatorsAbove(ctx context.Context, user *models.User) (int64, error)
}

// WorkerRank joins a worker with their wallet aggregates for ranking.
type WorkerRank struct {
	User   models.User
	Wallet models.Wallet
}
