// Package leaderboard serves the public ranking queries. Reads only.
package leaderboard

import (
	"context"
	"errors"

	"gigpay/internal/models"
	"gigpay/internal/repositories"
)

// ErrInvalidSort is returned for unknown ranking criteria.
var ErrInvalidSort = errors.New("invalid sort criteria")

// Sort criteria for worker rankings.
const (
	SortByEarnings = "earnings"
	SortByTasks    = "tasks"
	SortByRating   = "rating"
)

// WorkerEntry is one leaderboard row.
type WorkerEntry struct {
	Rank           int     `json:"rank"`
	UserID         uint    `json:"userId"`
	Name           string  `json:"name"`
	TasksCompleted int     `json:"tasksCompleted"`
	Rating         float64 `json:"rating"`
	TotalEarned    string  `json:"totalEarned"`
}

// CreatorEntry is one creator leaderboard row.
type CreatorEntry struct {
	Rank         int    `json:"rank"`
	UserID       uint   `json:"userId"`
	Name         string `json:"name"`
	TasksCreated int    `json:"tasksCreated"`
}

// Rank is a user's own position.
type Rank struct {
	Rank  int64  `json:"rank"`
	Total int64  `json:"total"`
	By    string `json:"by"`
}

// Service is the leaderboard API.
type Service interface {
	TopWorkers(ctx context.Context, sortBy string, limit int) ([]WorkerEntry, error)
	TopCreators(ctx context.Context, limit int) ([]CreatorEntry, error)
	MyRank(ctx context.Context, userID uint) (*Rank, error)
}

type service struct {
	uow repositories.UnitOfWork
}

// NewService creates a leaderboard service.
func NewService(uow repositories.UnitOfWork) Service {
	return &service{uow: uow}
}

func (s *service) TopWorkers(ctx context.Context, sortBy string, limit int) ([]WorkerEntry, error) {
	if sortBy == "" {
		sortBy = SortByEarnings
	}
	switch sortBy {
	case SortByEarnings, SortByTasks, SortByRating:
	default:
		return nil, ErrInvalidSort
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	var ranks []repositories.WorkerRank
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		var err error
		ranks, err = r.Users.TopWorkers(ctx, sortBy, limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	entries := make([]WorkerEntry, 0, len(ranks))
	for i, rank := range ranks {
		entries = append(entries, WorkerEntry{
			Rank:           i + 1,
			UserID:         rank.User.ID,
			Name:           rank.User.Name,
			TasksCompleted: rank.User.Statistics.TasksCompleted,
			Rating:         rank.User.Statistics.Rating,
			TotalEarned:    rank.Wallet.TotalEarned.String(),
		})
	}
	return entries, nil
}

func (s *service) TopCreators(ctx context.Context, limit int) ([]CreatorEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	var users []models.User
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		var err error
		users, err = r.Users.TopCreators(ctx, limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	entries := make([]CreatorEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, CreatorEntry{
			Rank:         i + 1,
			UserID:       u.ID,
			Name:         u.Name,
			TasksCreated: u.Statistics.TasksCreated,
		})
	}
	return entries, nil
}

// MyRank counts users strictly ahead of the caller on their role's
// default criteria.
func (s *service) MyRank(ctx context.Context, userID uint) (*Rank, error) {
	var rank *Rank
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		user, err := r.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if user.Role == models.RoleCreator {
			above, err := r.Users.CountCreatorsAbove(ctx, user)
			if err != nil {
				return err
			}
			total, err := r.Users.Count(ctx, repositories.UserFilter{Role: models.RoleCreator})
			if err != nil {
				return err
			}
			rank = &Rank{Rank: above + 1, Total: total, By: "tasksCreated"}
			return nil
		}

		above, err := r.Users.CountWorkersAbove(ctx, user)
		if err != nil {
			return err
		}
		total, err := r.Users.Count(ctx, repositories.UserFilter{Role: models.RoleWorker})
		if err != nil {
			return err
		}
		rank = &Rank{Rank: above + 1, Total: total, By: SortByEarnings}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rank, nil
}
