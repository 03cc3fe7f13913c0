package repositorytest

import (
	"fmt"

	"github.com/shopspring/decimal"

	"gigpay/internal/models"
	"gigpay/internal/repositories"
)

// Seed helpers bypass the unit of work so tests can set up fixtures
// without threading transactions through setup code.

// SeedUser inserts a user with a zeroed wallet and returns it.
func (s *Store) SeedUser(role string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.nextUser++
	id := s.state.nextUser
	user := &models.User{
		Name:         fmt.Sprintf("user-%d", id),
		Email:        fmt.Sprintf("user-%d@example.com", id),
		Password:     "hashed",
		Role:         role,
		IsActive:     true,
		IsApproved:   true,
		TokenVersion: 1,
		ReferralCode: fmt.Sprintf("GP%04X", id),
	}
	user.ID = id
	user.CreatedAt = s.now()
	stored := *user
	s.state.users[id] = &stored

	s.state.nextWallet++
	wallet := &models.Wallet{
		ID:             s.state.nextWallet,
		UserID:         id,
		Balance:        decimal.Zero,
		TotalEarned:    decimal.Zero,
		TotalWithdrawn: decimal.Zero,
	}
	s.state.wallets[wallet.ID] = wallet
	return user
}

// SeedSystemUser inserts the platform user that receives commissions.
func (s *Store) SeedSystemUser() *models.User {
	user := s.SeedUser(models.RoleAdmin)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.users[user.ID].IsSystem = true
	user.IsSystem = true
	return user
}

// SetBalance overwrites a wallet's balance and total earned, as if the
// amount had been earned.
func (s *Store) SetBalance(userID uint, balance decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.state.wallets {
		if w.UserID == userID {
			w.Balance = balance
			w.TotalEarned = balance
			return
		}
	}
	panic(fmt.Sprintf("repositorytest: no wallet for user %d", userID))
}

// Wallet returns a copy of the user's wallet.
func (s *Store) Wallet(userID uint) models.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.state.wallets {
		if w.UserID == userID {
			return *w
		}
	}
	panic(fmt.Sprintf("repositorytest: no wallet for user %d", userID))
}

// User returns a copy of the stored user.
func (s *Store) User(id uint) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.state.users[id]
	if !ok {
		panic(fmt.Sprintf("repositorytest: no user %d", id))
	}
	return *u
}

// Task returns a copy of the stored task.
func (s *Store) Task(id uint) models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.state.tasks[id]
	if !ok {
		panic(fmt.Sprintf("repositorytest: no task %d", id))
	}
	return *t
}

// Submission returns a copy of the stored submission.
func (s *Store) Submission(id uint) models.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.state.submissions[id]
	if !ok {
		panic(fmt.Sprintf("repositorytest: no submission %d", id))
	}
	return *sub
}

// Transactions returns copies of the user's ledger entries, oldest first.
func (s *Store) Transactions(userID uint) []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var txs []models.Transaction
	for _, id := range sortedKeys(s.state.transactions) {
		t := s.state.transactions[id]
		if t.UserID == userID {
			txs = append(txs, *t)
		}
	}
	return txs
}

// Logs returns copies of all audit log entries, oldest first.
func (s *Store) Logs() []models.AdminLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	var logs []models.AdminLog
	for _, id := range sortedKeys(s.state.logs) {
		logs = append(logs, *s.state.logs[id])
	}
	return logs
}

// SeedTask inserts an approved active task and returns it.
func (s *Store) SeedTask(creatorID uint, reward decimal.Decimal, slots int) *models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.nextTask++
	task := &models.Task{
		CreatorID:      creatorID,
		Title:          fmt.Sprintf("task-%d", s.state.nextTask),
		Description:    "seeded",
		Category:       "data-entry",
		Reward:         reward,
		TotalSlots:     slots,
		AvailableSlots: slots,
		Status:         models.TaskStatusActive,
		IsApproved:     true,
	}
	task.ID = s.state.nextTask
	task.CreatedAt = s.now()
	stored := *task
	s.state.tasks[task.ID] = &stored
	return task
}

var _ repositories.UnitOfWork = (*unitOfWork)(nil)
