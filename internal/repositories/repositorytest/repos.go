package repositorytest

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"gigpay/internal/models"
	"gigpay/internal/repositories"
)

// The repo types assume the store mutex is already held by the unit of
// work that produced them.

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	for _, u := range r.s.state.users {
		if u.Email == user.Email {
			return repositories.ErrDuplicateEmail
		}
	}
	r.s.state.nextUser++
	user.ID = r.s.state.nextUser
	user.CreatedAt = r.s.now()
	if user.TokenVersion == 0 {
		user.TokenVersion = 1
	}
	stored := *user
	r.s.state.users[user.ID] = &stored
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	u, ok := r.s.state.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	v := *u
	return &v, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.s.state.users {
		if u.Email == email {
			v := *u
			return &v, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *userRepo) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	for _, u := range r.s.state.users {
		if u.ReferralCode == code {
			v := *u
			return &v, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *userRepo) GetSystemUser(ctx context.Context) (*models.User, error) {
	for _, u := range r.s.state.users {
		if u.IsSystem {
			v := *u
			return &v, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := r.s.state.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	stored := *user
	r.s.state.users[user.ID] = &stored
	return nil
}

func (r *userRepo) matches(u *models.User, filter repositories.UserFilter) bool {
	if u.IsSystem {
		return false
	}
	if filter.Role != "" && u.Role != filter.Role {
		return false
	}
	if filter.IsApproved != nil && u.IsApproved != *filter.IsApproved {
		return false
	}
	if filter.IsActive != nil && u.IsActive != *filter.IsActive {
		return false
	}
	return true
}

func (r *userRepo) List(ctx context.Context, filter repositories.UserFilter) ([]models.User, int64, error) {
	var users []models.User
	for _, id := range sortedKeys(r.s.state.users) {
		u := r.s.state.users[id]
		if r.matches(u, filter) {
			users = append(users, *u)
		}
	}
	total := int64(len(users))
	users = window(users, filter.Limit, filter.Offset)
	return users, total, nil
}

func (r *userRepo) Count(ctx context.Context, filter repositories.UserFilter) (int64, error) {
	_, total, err := r.List(ctx, repositories.UserFilter{
		Role:       filter.Role,
		IsApproved: filter.IsApproved,
		IsActive:   filter.IsActive,
	})
	return total, err
}

func (r *userRepo) SetApproval(ctx context.Context, userID uint, approved, active bool) error {
	u, ok := r.s.state.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.IsApproved = approved
	u.IsActive = active
	return nil
}

func (r *userRepo) SetReferredBy(ctx context.Context, userID, referrerID uint) (bool, error) {
	u, ok := r.s.state.users[userID]
	if !ok {
		return false, repositories.ErrUserNotFound
	}
	if u.ReferredByID != nil {
		return false, nil
	}
	u.ReferredByID = &referrerID
	return true, nil
}

func (r *userRepo) ListReferrals(ctx context.Context, referrerID uint) ([]models.User, error) {
	var referrals []models.User
	for _, id := range sortedKeys(r.s.state.users) {
		u := r.s.state.users[id]
		if u.ReferredByID != nil && *u.ReferredByID == referrerID {
			referrals = append(referrals, *u)
		}
	}
	return referrals, nil
}

func (r *userRepo) UpdateStreak(ctx context.Context, userID uint, streak int, at time.Time) error {
	u, ok := r.s.state.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.StreakCount = streak
	u.LastDailyTaskAt = &at
	return nil
}

func (r *userRepo) ApplyReview(ctx context.Context, workerID uint, rating *int) error {
	u, ok := r.s.state.users[workerID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.Statistics.TasksCompleted++
	if rating != nil {
		old := u.Statistics.Rating * float64(u.Statistics.TotalRatings)
		u.Statistics.TotalRatings++
		u.Statistics.Rating = (old + float64(*rating)) / float64(u.Statistics.TotalRatings)
	}
	return nil
}

func (r *userRepo) IncrementTasksCreated(ctx context.Context, creatorID uint) error {
	u, ok := r.s.state.users[creatorID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.Statistics.TasksCreated++
	return nil
}

func (r *userRepo) TopWorkers(ctx context.Context, sortBy string, limit int) ([]repositories.WorkerRank, error) {
	var ranks []repositories.WorkerRank
	for _, id := range sortedKeys(r.s.state.users) {
		u := r.s.state.users[id]
		if u.IsSystem || u.Role != models.RoleWorker {
			continue
		}
		rank := repositories.WorkerRank{User: *u}
		for _, w := range r.s.state.wallets {
			if w.UserID == u.ID {
				rank.Wallet = *w
			}
		}
		ranks = append(ranks, rank)
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		switch sortBy {
		case "tasks":
			return ranks[i].User.Statistics.TasksCompleted > ranks[j].User.Statistics.TasksCompleted
		case "rating":
			return ranks[i].User.Statistics.Rating > ranks[j].User.Statistics.Rating
		default:
			return ranks[i].Wallet.TotalEarned.GreaterThan(ranks[j].Wallet.TotalEarned)
		}
	})
	if limit > 0 && len(ranks) > limit {
		ranks = ranks[:limit]
	}
	return ranks, nil
}

func (r *userRepo) TopCreators(ctx context.Context, limit int) ([]models.User, error) {
	var creators []models.User
	for _, id := range sortedKeys(r.s.state.users) {
		u := r.s.state.users[id]
		if !u.IsSystem && u.Role == models.RoleCreator {
			creators = append(creators, *u)
		}
	}
	sort.SliceStable(creators, func(i, j int) bool {
		return creators[i].Statistics.TasksCreated > creators[j].Statistics.TasksCreated
	})
	if limit > 0 && len(creators) > limit {
		creators = creators[:limit]
	}
	return creators, nil
}

func (r *userRepo) CountWorkersAbove(ctx context.Context, user *models.User) (int64, error) {
	var mine decimal.Decimal
	for _, w := range r.s.state.wallets {
		if w.UserID == user.ID {
			mine = w.TotalEarned
		}
	}
	var above int64
	for _, u := range r.s.state.users {
		if u.IsSystem || u.Role != models.RoleWorker || u.ID == user.ID {
			continue
		}
		for _, w := range r.s.state.wallets {
			if w.UserID == u.ID && w.TotalEarned.GreaterThan(mine) {
				above++
			}
		}
	}
	return above, nil
}

func (r *userRepo) CountCreatorsAbove(ctx context.Context, user *models.User) (int64, error) {
	var above int64
	for _, u := range r.s.state.users {
		if u.IsSystem || u.Role != models.RoleCreator || u.ID == user.ID {
			continue
		}
		if u.Statistics.TasksCreated > user.Statistics.TasksCreated {
			above++
		}
	}
	return above, nil
}

type ledgerRepo struct{ s *Store }

func (r *ledgerRepo) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	r.s.state.nextWallet++
	wallet.ID = r.s.state.nextWallet
	wallet.Balance = decimal.Zero
	wallet.TotalEarned = decimal.Zero
	wallet.TotalWithdrawn = decimal.Zero
	stored := *wallet
	r.s.state.wallets[wallet.ID] = &stored
	return nil
}

func (r *ledgerRepo) GetWalletByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	for _, w := range r.s.state.wallets {
		if w.UserID == userID {
			v := *w
			return &v, nil
		}
	}
	return nil, repositories.ErrWalletNotFound
}

func (r *ledgerRepo) UpdateWalletVersioned(ctx context.Context, wallet *models.Wallet) error {
	stored, ok := r.s.state.wallets[wallet.ID]
	if !ok || stored.Version != wallet.Version {
		return repositories.ErrVersionConflict
	}
	stored.Balance = wallet.Balance
	stored.TotalEarned = wallet.TotalEarned
	stored.TotalWithdrawn = wallet.TotalWithdrawn
	stored.Version++
	wallet.Version++
	return nil
}

func (r *ledgerRepo) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	r.s.state.nextTx++
	tx.ID = r.s.state.nextTx
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = r.s.now()
	}
	stored := *tx
	r.s.state.transactions[tx.ID] = &stored
	return nil
}

func (r *ledgerRepo) GetTransactionByID(ctx context.Context, id uint) (*models.Transaction, error) {
	t, ok := r.s.state.transactions[id]
	if !ok {
		return nil, repositories.ErrTransactionNotFound
	}
	v := *t
	return &v, nil
}

func (r *ledgerRepo) matches(t *models.Transaction, filter repositories.TransactionFilter) bool {
	if filter.UserID != 0 && t.UserID != filter.UserID {
		return false
	}
	if filter.Type != "" && t.Type != filter.Type {
		return false
	}
	if filter.TaskType != "" && t.TaskType != filter.TaskType {
		return false
	}
	if filter.Status != "" && t.Status != filter.Status {
		return false
	}
	if filter.From != nil && t.CreatedAt.Before(*filter.From) {
		return false
	}
	if filter.To != nil && t.CreatedAt.After(*filter.To) {
		return false
	}
	return true
}

func (r *ledgerRepo) List(ctx context.Context, filter repositories.TransactionFilter) ([]models.Transaction, int64, error) {
	var txs []models.Transaction
	for _, id := range sortedKeys(r.s.state.transactions) {
		t := r.s.state.transactions[id]
		if r.matches(t, filter) {
			txs = append(txs, *t)
		}
	}
	if !filter.Ascending {
		for i, j := 0, len(txs)-1; i < j; i, j = i+1, j-1 {
			txs[i], txs[j] = txs[j], txs[i]
		}
	}
	total := int64(len(txs))
	txs = window(txs, filter.Limit, filter.Offset)
	return txs, total, nil
}

func (r *ledgerRepo) Count(ctx context.Context, filter repositories.TransactionFilter) (int64, error) {
	filter.Limit = 0
	filter.Offset = 0
	_, total, err := r.List(ctx, filter)
	return total, err
}

func (r *ledgerRepo) CountEarnings(ctx context.Context, userID uint, taskType string, start, end time.Time) (int64, error) {
	var count int64
	for _, t := range r.s.state.transactions {
		if t.UserID == userID && t.Type == models.TransactionTypeEarning && t.TaskType == taskType &&
			t.Status == models.TransactionStatusCompleted &&
			!t.CreatedAt.Before(start) && !t.CreatedAt.After(end) {
			count++
		}
	}
	return count, nil
}

func (r *ledgerRepo) UpdateTransactionIf(ctx context.Context, id uint, fromStatus string, updates map[string]interface{}) (bool, error) {
	t, ok := r.s.state.transactions[id]
	if !ok || t.Status != fromStatus {
		return false, nil
	}
	applyTransactionUpdates(t, updates)
	return true, nil
}

func (r *ledgerRepo) SumCompleted(ctx context.Context, txType string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, t := range r.s.state.transactions {
		if t.Type == txType && t.Status == models.TransactionStatusCompleted {
			total = total.Add(t.Amount)
		}
	}
	return total, nil
}

type taskRepo struct{ s *Store }

func (r *taskRepo) Create(ctx context.Context, task *models.Task) error {
	r.s.state.nextTask++
	task.ID = r.s.state.nextTask
	task.AvailableSlots = task.TotalSlots
	task.Status = models.TaskStatusPending
	task.IsApproved = false
	task.CreatedAt = r.s.now()
	stored := *task
	r.s.state.tasks[task.ID] = &stored
	return nil
}

func (r *taskRepo) GetByID(ctx context.Context, id uint) (*models.Task, error) {
	t, ok := r.s.state.tasks[id]
	if !ok {
		return nil, repositories.ErrTaskNotFound
	}
	v := *t
	return &v, nil
}

func (r *taskRepo) Update(ctx context.Context, task *models.Task) error {
	if _, ok := r.s.state.tasks[task.ID]; !ok {
		return repositories.ErrTaskNotFound
	}
	stored := *task
	r.s.state.tasks[task.ID] = &stored
	return nil
}

func (r *taskRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := r.s.state.tasks[id]; !ok {
		return repositories.ErrTaskNotFound
	}
	delete(r.s.state.tasks, id)
	return nil
}

func (r *taskRepo) matches(t *models.Task, filter repositories.TaskFilter) bool {
	if filter.Status != "" && t.Status != filter.Status {
		return false
	}
	if filter.Category != "" && t.Category != filter.Category {
		return false
	}
	if filter.CreatorID != 0 && t.CreatorID != filter.CreatorID {
		return false
	}
	if filter.IsApproved != nil && t.IsApproved != *filter.IsApproved {
		return false
	}
	if filter.OnlyAvailable && t.AvailableSlots <= 0 {
		return false
	}
	return true
}

func (r *taskRepo) List(ctx context.Context, filter repositories.TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task
	for _, id := range sortedKeys(r.s.state.tasks) {
		t := r.s.state.tasks[id]
		if r.matches(t, filter) {
			tasks = append(tasks, *t)
		}
	}
	total := int64(len(tasks))
	tasks = window(tasks, filter.Limit, filter.Offset)
	return tasks, total, nil
}

func (r *taskRepo) Count(ctx context.Context, filter repositories.TaskFilter) (int64, error) {
	filter.Limit = 0
	filter.Offset = 0
	_, total, err := r.List(ctx, filter)
	return total, err
}

func (r *taskRepo) ClaimSlot(ctx context.Context, taskID uint) (bool, error) {
	t, ok := r.s.state.tasks[taskID]
	if !ok || t.AvailableSlots <= 0 {
		return false, nil
	}
	t.AvailableSlots--
	if t.AvailableSlots == 0 {
		t.Status = models.TaskStatusCompleted
	}
	return true, nil
}

func (r *taskRepo) ReleaseSlot(ctx context.Context, taskID uint) (bool, error) {
	t, ok := r.s.state.tasks[taskID]
	if !ok || t.AvailableSlots >= t.TotalSlots {
		return false, nil
	}
	t.AvailableSlots++
	if t.Status == models.TaskStatusCompleted {
		t.Status = models.TaskStatusActive
	}
	return true, nil
}

func (r *taskRepo) UpdateStatusIf(ctx context.Context, id uint, fromStatuses []string, updates map[string]interface{}) (bool, error) {
	t, ok := r.s.state.tasks[id]
	if !ok {
		return false, nil
	}
	allowed := false
	for _, status := range fromStatuses {
		if t.Status == status {
			allowed = true
		}
	}
	if !allowed {
		return false, nil
	}
	applyTaskUpdates(t, updates)
	return true, nil
}

type submissionRepo struct{ s *Store }

func (r *submissionRepo) Create(ctx context.Context, sub *models.Submission) error {
	for _, existing := range r.s.state.submissions {
		if existing.TaskID == sub.TaskID && existing.WorkerID == sub.WorkerID {
			return repositories.ErrDuplicateSubmission
		}
	}
	r.s.state.nextSub++
	sub.ID = r.s.state.nextSub
	sub.CreatedAt = r.s.now()
	stored := *sub
	r.s.state.submissions[sub.ID] = &stored
	return nil
}

func (r *submissionRepo) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	sub, ok := r.s.state.submissions[id]
	if !ok {
		return nil, repositories.ErrSubmissionNotFound
	}
	v := *sub
	return &v, nil
}

func (r *submissionRepo) GetByTaskAndWorker(ctx context.Context, taskID, workerID uint) (*models.Submission, error) {
	for _, sub := range r.s.state.submissions {
		if sub.TaskID == taskID && sub.WorkerID == workerID {
			v := *sub
			return &v, nil
		}
	}
	return nil, repositories.ErrSubmissionNotFound
}

func (r *submissionRepo) matches(sub *models.Submission, filter repositories.SubmissionFilter) bool {
	if filter.TaskID != 0 && sub.TaskID != filter.TaskID {
		return false
	}
	if len(filter.TaskIDs) > 0 {
		found := false
		for _, id := range filter.TaskIDs {
			if sub.TaskID == id {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if filter.WorkerID != 0 && sub.WorkerID != filter.WorkerID {
		return false
	}
	if filter.Status != "" && sub.Status != filter.Status {
		return false
	}
	return true
}

func (r *submissionRepo) List(ctx context.Context, filter repositories.SubmissionFilter) ([]models.Submission, int64, error) {
	var subs []models.Submission
	for _, id := range sortedKeys(r.s.state.submissions) {
		sub := r.s.state.submissions[id]
		if r.matches(sub, filter) {
			subs = append(subs, *sub)
		}
	}
	total := int64(len(subs))
	subs = window(subs, filter.Limit, filter.Offset)
	return subs, total, nil
}

func (r *submissionRepo) Count(ctx context.Context, filter repositories.SubmissionFilter) (int64, error) {
	filter.Limit = 0
	filter.Offset = 0
	_, total, err := r.List(ctx, filter)
	return total, err
}

func (r *submissionRepo) UpdateStatusIf(ctx context.Context, id uint, fromStatus string, updates map[string]interface{}) (bool, error) {
	sub, ok := r.s.state.submissions[id]
	if !ok || sub.Status != fromStatus {
		return false, nil
	}
	applySubmissionUpdates(sub, updates)
	return true, nil
}

type adminLogRepo struct{ s *Store }

func (r *adminLogRepo) Create(ctx context.Context, entry *models.AdminLog) error {
	r.s.state.nextLog++
	entry.ID = r.s.state.nextLog
	entry.CreatedAt = r.s.now()
	stored := *entry
	r.s.state.logs[entry.ID] = &stored
	return nil
}

func (r *adminLogRepo) List(ctx context.Context, filter repositories.AdminLogFilter) ([]models.AdminLog, int64, error) {
	var logs []models.AdminLog
	for _, id := range sortedKeys(r.s.state.logs) {
		l := r.s.state.logs[id]
		if filter.AdminID != 0 && l.AdminID != filter.AdminID {
			continue
		}
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		logs = append(logs, *l)
	}
	total := int64(len(logs))
	logs = window(logs, filter.Limit, filter.Offset)
	return logs, total, nil
}
