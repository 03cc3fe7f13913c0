// Package repositorytest provides an in-memory implementation of the
// repository interfaces for service tests. Units of work are serialized
// through one mutex and roll back by snapshot restore, which preserves
// the atomicity the services rely on without a database.
package repositorytest

import (
	"context"
	"sync"
	"time"

	"gigpay/internal/models"
	"gigpay/internal/repositories"
)

type state struct {
	users        map[uint]*models.User
	wallets      map[uint]*models.Wallet
	transactions map[uint]*models.Transaction
	tasks        map[uint]*models.Task
	submissions  map[uint]*models.Submission
	logs         map[uint]*models.AdminLog

	nextUser, nextWallet, nextTx, nextTask, nextSub, nextLog uint
}

func newState() *state {
	return &state{
		users:        make(map[uint]*models.User),
		wallets:      make(map[uint]*models.Wallet),
		transactions: make(map[uint]*models.Transaction),
		tasks:        make(map[uint]*models.Task),
		submissions:  make(map[uint]*models.Submission),
		logs:         make(map[uint]*models.AdminLog),
	}
}

func (s *state) clone() *state {
	c := newState()
	c.nextUser, c.nextWallet, c.nextTx = s.nextUser, s.nextWallet, s.nextTx
	c.nextTask, c.nextSub, c.nextLog = s.nextTask, s.nextSub, s.nextLog
	for id, u := range s.users {
		v := *u
		c.users[id] = &v
	}
	for id, w := range s.wallets {
		v := *w
		c.wallets[id] = &v
	}
	for id, t := range s.transactions {
		v := *t
		c.transactions[id] = &v
	}
	for id, t := range s.tasks {
		v := *t
		c.tasks[id] = &v
	}
	for id, sub := range s.submissions {
		v := *sub
		c.submissions[id] = &v
	}
	for id, l := range s.logs {
		v := *l
		c.logs[id] = &v
	}
	return c
}

// Store is the in-memory database behind the fake repositories.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{state: newState(), now: time.Now}
}

// SetClock overrides the timestamp source for created records.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// UnitOfWork returns a transaction runner over the store. Each unit
// runs under the store mutex; an error restores the pre-unit snapshot.
func (s *Store) UnitOfWork() repositories.UnitOfWork {
	return &unitOfWork{store: s}
}

type unitOfWork struct {
	store *Store
}

func (u *unitOfWork) Do(ctx context.Context, fn func(r repositories.Repos) error) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	snapshot := u.store.state.clone()
	repos := newRepos(u.store)
	if err := fn(repos); err != nil {
		u.store.state = snapshot
		return err
	}
	return nil
}

func newRepos(s *Store) repositories.Repos {
	return repositories.Repos{
		Users:       &userRepo{s},
		Ledger:      &ledgerRepo{s},
		Tasks:       &taskRepo{s},
		Submissions: &submissionRepo{s},
		AdminLogs:   &adminLogRepo{s},
	}
}
