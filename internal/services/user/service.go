// Package user serves profile, wallet and history reads for the
// account-facing endpoints.
package user

import (
	"context"

	"gigpay/internal/models"
	"gigpay/internal/repositories"
	"gigpay/internal/services/ledger"
)

// UpdateProfileRequest carries optional profile edits.
type UpdateProfileRequest struct {
	Name   *string
	Skills *string
}

// ReferralInfo bundles a user's own code with the accounts it brought in.
type ReferralInfo struct {
	Code      string        `json:"referralCode"`
	Referrals []models.User `json:"referrals"`
}

// WalletCache is the cache-aside surface for wallet reads.
type WalletCache interface {
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	CacheWallet(ctx context.Context, wallet *models.Wallet) error
}

// Service is the account read/update API.
type Service interface {
	GetProfile(ctx context.Context, userID uint) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uint, req UpdateProfileRequest) (*models.User, error)
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	GetTransactions(ctx context.Context, userID uint, filter repositories.TransactionFilter) ([]models.Transaction, int64, error)
	GetReferrals(ctx context.Context, userID uint) (*ReferralInfo, error)
}

type service struct {
	uow    repositories.UnitOfWork
	ledger ledger.Service
	cache  WalletCache
}

// NewService creates a user service. Cache may be nil.
func NewService(uow repositories.UnitOfWork, ledgerSvc ledger.Service, cache WalletCache) Service {
	return &service{uow: uow, ledger: ledgerSvc, cache: cache}
}

func (s *service) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	var user *models.User
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		var err error
		user, err = r.Users.GetByID(ctx, userID)
		return err
	})
	return user, err
}

func (s *service) UpdateProfile(ctx context.Context, userID uint, req UpdateProfileRequest) (*models.User, error) {
	var user *models.User
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		found, err := r.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if req.Name != nil {
			found.Name = *req.Name
		}
		if req.Skills != nil {
			found.Skills = *req.Skills
		}
		if err := r.Users.Update(ctx, found); err != nil {
			return err
		}
		user = found
		return nil
	})
	return user, err
}

// GetWallet reads through the cache. The ledger invalidates on every
// mutation, so a hit is never stale for longer than one write.
func (s *service) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	if s.cache != nil {
		if wallet, err := s.cache.GetWallet(ctx, userID); err == nil {
			return wallet, nil
		}
	}
	wallet, err := s.ledger.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.CacheWallet(ctx, wallet)
	}
	return wallet, nil
}

func (s *service) GetTransactions(ctx context.Context, userID uint, filter repositories.TransactionFilter) ([]models.Transaction, int64, error) {
	filter.UserID = userID
	return s.ledger.ListTransactions(ctx, filter)
}

func (s *service) GetReferrals(ctx context.Context, userID uint) (*ReferralInfo, error) {
	var info *ReferralInfo
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		user, err := r.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		referrals, err := r.Users.ListReferrals(ctx, userID)
		if err != nil {
			return err
		}
		info = &ReferralInfo{Code: user.ReferralCode, Referrals: referrals}
		return nil
	})
	return info, err
}
