package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gigpay/internal/models"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("referral_code = ?", code).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by referral code: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetSystemUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("is_system = true").First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get system user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (r *userRepository) applyFilter(q *gorm.DB, filter UserFilter) *gorm.DB {
	q = q.Where("is_system = false")
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if filter.IsApproved != nil {
		q = q.Where("is_approved = ?", *filter.IsApproved)
	}
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	return q
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	var users []models.User
	q := r.applyFilter(r.db.WithContext(ctx).Model(&models.User{}), filter)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Offset(filter.Offset).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (r *userRepository) Count(ctx context.Context, filter UserFilter) (int64, error) {
	var total int64
	q := r.applyFilter(r.db.WithContext(ctx).Model(&models.User{}), filter)
	if err := q.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return total, nil
}

func (r *userRepository) SetApproval(ctx context.Context, userID uint, approved, active bool) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{"is_approved": approved, "is_active": active})
	if result.Error != nil {
		return fmt.Errorf("failed to update user approval: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) SetReferredBy(ctx context.Context, userID, referrerID uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND referred_by_id IS NULL", userID).
		Update("referred_by_id", referrerID)
	if result.Error != nil {
		return false, fmt.Errorf("failed to link referral: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *userRepository) ListReferrals(ctx context.Context, referrerID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("referred_by_id = ?", referrerID).
		Order("created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	return users, nil
}

func (r *userRepository) UpdateStreak(ctx context.Context, userID uint, streak int, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{"streak_count": streak, "last_daily_task_at": at})
	if result.Error != nil {
		return fmt.Errorf("failed to update streak: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) ApplyReview(ctx context.Context, workerID uint, rating *int) error {
	updates := map[string]interface{}{
		"stat_tasks_completed": gorm.Expr("stat_tasks_completed + 1"),
	}
	if rating != nil {
		updates["stat_rating"] = gorm.Expr(
			"(stat_rating * stat_total_ratings + ?) / (stat_total_ratings + 1)", *rating)
		updates["stat_total_ratings"] = gorm.Expr("stat_total_ratings + 1")
	}
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", workerID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to apply review stats: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) IncrementTasksCreated(ctx context.Context, creatorID uint) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", creatorID).
		Update("stat_tasks_created", gorm.Expr("stat_tasks_created + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to increment tasks created: %w", result.Error)
	}
	return nil
}

func (r *userRepository) TopWorkers(ctx context.Context, sortBy string, limit int) ([]WorkerRank, error) {
	order := "wallets.total_earned DESC"
	switch sortBy {
	case "tasks":
		order = "users.stat_tasks_completed DESC"
	case "rating":
		order = "users.stat_rating DESC"
	}

	var users []models.User
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN wallets ON wallets.user_id = users.id").
		Where("users.role = ? AND users.is_active = true AND users.is_approved = true", models.RoleWorker).
		Order(order).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query top workers: %w", err)
	}

	ranks := make([]WorkerRank, 0, len(users))
	for _, u := range users {
		wallet, err := r.walletOf(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		ranks = append(ranks, WorkerRank{User: u, Wallet: *wallet})
	}
	return ranks, nil
}

func (r *userRepository) walletOf(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *userRepository) TopCreators(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND is_active = true AND is_approved = true", models.RoleCreator).
		Order("stat_tasks_created DESC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query top creators: %w", err)
	}
	return users, nil
}

func (r *userRepository) CountWorkersAbove(ctx context.Context, user *models.User) (int64, error) {
	wallet, err := r.walletOf(ctx, user.ID)
	if err != nil {
		return 0, err
	}
	var count int64
	err = r.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN wallets ON wallets.user_id = users.id").
		Where("users.role = ? AND users.is_active = true AND wallets.total_earned > ?",
			models.RoleWorker, wallet.TotalEarned).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count workers above: %w", err)
	}
	return count, nil
}

func (r *userRepository) CountCreatorsAbove(ctx context.Context, user *models.User) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ? AND is_active = true AND stat_tasks_created > ?",
			models.RoleCreator, user.Statistics.TasksCreated).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count creators above: %w", err)
	}
	return count, nil
}
