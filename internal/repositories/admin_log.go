package repositories

import (
	"context"
	"fmt"

	"gigpay/internal/models"

	"gorm.io/gorm"
)

// AdminLogFilter narrows audit log listings.
type AdminLogFilter struct {
	AdminID uint
	Action  string
	Limit   int
	Offset  int
}

// AdminLogRepository is append-only: entries are created and listed, never
// updated or deleted.
type AdminLogRepository interface {
	Create(ctx context.Context, entry *models.AdminLog) error
	List(ctx context.Context, filter AdminLogFilter) ([]models.AdminLog, int64, error)
}

type adminLogRepository struct {
	db *gorm.DB
}

func NewAdminLogRepository(db *gorm.DB) AdminLogRepository {
	return &adminLogRepository{db: db}
}

func (r *adminLogRepository) Create(ctx context.Context, entry *models.AdminLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create admin log: %w", err)
	}
	return nil
}

func (r *adminLogRepository) List(ctx context.Context, filter AdminLogFilter) ([]models.AdminLog, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.AdminLog{})
	if filter.AdminID != 0 {
		q = q.Where("admin_id = ?", filter.AdminID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count admin logs: %w", err)
	}

	var logs []models.AdminLog
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Offset(filter.Offset).Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list admin logs: %w", err)
	}
	return logs, total, nil
}
