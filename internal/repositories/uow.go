package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Repos bundles transaction-scoped repositories. Inside a unit of work every
// repo rides the same database transaction, so a wallet write, its ledger
// append and any related status flip commit or roll back together.
type Repos struct {
	Users       UserRepository
	Ledger      LedgerRepository
	Tasks       TaskRepository
	Submissions SubmissionRepository
	AdminLogs   AdminLogRepository
}

// UnitOfWork runs a function with repositories bound to one transaction.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(r Repos) error) error
}

type gormUnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &gormUnitOfWork{db: db}
}

func (u *gormUnitOfWork) Do(ctx context.Context, fn func(r Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepos(tx))
	})
}

// NewRepos builds the repository bundle over a database handle.
func NewRepos(db *gorm.DB) Repos {
	return Repos{
		Users:       NewUserRepository(db),
		Ledger:      NewLedgerRepository(db),
		Tasks:       NewTaskRepository(db),
		Submissions: NewSubmissionRepository(db),
		AdminLogs:   NewAdminLogRepository(db),
	}
}
