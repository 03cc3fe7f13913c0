// Package earning implements the built-in reward activities: captcha
// solves, spin wheel, daily login streaks and referrals. Amounts and
// limits come from Policy; every credit goes through the ledger service
// so limits and balances stay consistent under concurrency.
package earning

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gigpay/internal/models"
	"gigpay/internal/repositories"
	"gigpay/internal/services/ledger"
	"gigpay/internal/services/notification"
)

// DailyLoginResult reports the outcome of a daily login claim.
type DailyLoginResult struct {
	Streak      int                 `json:"streak"`
	Reward      decimal.Decimal     `json:"reward"`
	Transaction *models.Transaction `json:"transaction"`
}

// SpinResult reports a spin wheel outcome.
type SpinResult struct {
	Prize       int64               `json:"prize"`
	Transaction *models.Transaction `json:"transaction"`
}

// DailyStatus reports how many plays remain today per activity.
type DailyStatus struct {
	CaptchaRemaining    int64 `json:"captchaRemaining"`
	SpinsRemaining      int64 `json:"spinsRemaining"`
	DailyLoginAvailable bool  `json:"dailyLoginAvailable"`
}

// Service is the earning activities API.
type Service interface {
	IssueCaptcha(ctx context.Context) (*Challenge, error)
	CompleteCaptcha(ctx context.Context, userID uint, challengeID string, answer int) (*models.Transaction, error)
	CompleteSpinWheel(ctx context.Context, userID uint) (*SpinResult, error)
	CompleteDailyLogin(ctx context.Context, userID uint) (*DailyLoginResult, error)
	ApplyReferral(ctx context.Context, userID uint, code string) (*models.Transaction, error)
	Status(ctx context.Context, userID uint) (*DailyStatus, error)
}

type service struct {
	ledger   ledger.Service
	uow      repositories.UnitOfWork
	store    ChallengeStore
	notifier notification.Notifier
	policy   Policy

	now  func() time.Time
	pick func(n int) int
}

// NewService creates an earning service. Notifier may be nil.
func NewService(ledgerSvc ledger.Service, uow repositories.UnitOfWork, store ChallengeStore, notifier notification.Notifier, policy Policy) Service {
	if notifier == nil {
		notifier = notification.Noop{}
	}
	return &service{
		ledger:   ledgerSvc,
		uow:      uow,
		store:    store,
		notifier: notifier,
		policy:   policy,
		now:      time.Now,
		pick:     rand.Intn,
	}
}

func (s *service) IssueCaptcha(ctx context.Context) (*Challenge, error) {
	a := 5 + s.pick(20)
	b := 1 + s.pick(20)
	id := uuid.NewString()
	if err := s.store.Put(ctx, id, a+b, s.policy.CaptchaTTL); err != nil {
		return nil, fmt.Errorf("failed to store challenge: %w", err)
	}
	return &Challenge{
		ID:        id,
		Question:  fmt.Sprintf("%d + %d = ?", a, b),
		ExpiresAt: s.now().Add(s.policy.CaptchaTTL),
	}, nil
}

func (s *service) CompleteCaptcha(ctx context.Context, userID uint, challengeID string, answer int) (*models.Transaction, error) {
	expected, ok, err := s.store.Take(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrChallengeNotFound
	}
	if answer != expected {
		return nil, ErrWrongAnswer
	}

	txn, err := s.ledger.RecordEarning(ctx, ledger.EarningRequest{
		UserID:      userID,
		Amount:      s.policy.CaptchaReward,
		TaskType:    models.TaskTypeCaptcha,
		Description: "Captcha solved",
		DailyLimit:  s.policy.CaptchaDailyLimit,
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(userID, notification.NewEvent(notification.EventWalletUpdated,
		fmt.Sprintf("You earned %s coins for solving a captcha", txn.Amount),
		map[string]interface{}{"taskType": models.TaskTypeCaptcha, "amount": txn.Amount}))
	return txn, nil
}

func (s *service) CompleteSpinWheel(ctx context.Context, userID uint) (*SpinResult, error) {
	prize := s.policy.SpinPrizes[s.pick(len(s.policy.SpinPrizes))]
	txn, err := s.ledger.RecordEarning(ctx, ledger.EarningRequest{
		UserID:      userID,
		Amount:      decimal.NewFromInt(prize),
		TaskType:    models.TaskTypeSpinWheel,
		Description: fmt.Sprintf("Spin wheel prize: %d coins", prize),
		DailyLimit:  s.policy.SpinDailyLimit,
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(userID, notification.NewEvent(notification.EventWalletUpdated,
		fmt.Sprintf("The wheel landed on %d coins", prize),
		map[string]interface{}{"taskType": models.TaskTypeSpinWheel, "amount": txn.Amount}))
	return &SpinResult{Prize: prize, Transaction: txn}, nil
}

func (s *service) CompleteDailyLogin(ctx context.Context, userID uint) (*DailyLoginResult, error) {
	var user *models.User
	if err := s.uow.Do(ctx, func(r repositories.Repos) error {
		var err error
		user, err = r.Users.GetByID(ctx, userID)
		return err
	}); err != nil {
		return nil, err
	}

	now := s.now()
	streak := nextStreak(user.StreakCount, user.LastDailyTaskAt, now)
	reward := s.policy.loginReward(streak)

	txn, err := s.ledger.RecordEarning(ctx, ledger.EarningRequest{
		UserID:      userID,
		Amount:      reward,
		TaskType:    models.TaskTypeDailyLogin,
		Description: fmt.Sprintf("Daily login reward (streak %d)", streak),
		DailyLimit:  1,
		Streak:      &ledger.StreakUpdate{Count: streak, At: now},
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(userID, notification.NewEvent(notification.EventWalletUpdated,
		fmt.Sprintf("Daily login reward: %s coins (streak %d)", reward, streak),
		map[string]interface{}{"taskType": models.TaskTypeDailyLogin, "amount": reward, "streak": streak}))
	return &DailyLoginResult{Streak: streak, Reward: reward, Transaction: txn}, nil
}

// nextStreak extends the streak when the last claim fell on the previous
// local day, otherwise restarts at 1.
func nextStreak(current int, lastAt *time.Time, now time.Time) int {
	if lastAt == nil {
		return 1
	}
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterdayStart := todayStart.AddDate(0, 0, -1)
	if !lastAt.Before(yesterdayStart) && lastAt.Before(todayStart) {
		return current + 1
	}
	if !lastAt.Before(todayStart) {
		// Already claimed today, keep the streak as is. The daily limit
		// rejects the duplicate credit.
		return current
	}
	return 1
}

func (s *service) ApplyReferral(ctx context.Context, userID uint, code string) (*models.Transaction, error) {
	var referrer *models.User
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		found, err := r.Users.GetByReferralCode(ctx, code)
		if err != nil {
			if err == repositories.ErrUserNotFound {
				return ErrInvalidReferral
			}
			return err
		}
		if found.ID == userID {
			return ErrSelfReferral
		}

		linked, err := r.Users.SetReferredBy(ctx, userID, found.ID)
		if err != nil {
			return err
		}
		if !linked {
			return ErrAlreadyReferred
		}
		referrer = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The linkage above is the one-time gate; both bonuses follow it.
	txn, err := s.ledger.RecordEarning(ctx, ledger.EarningRequest{
		UserID:      userID,
		Amount:      s.policy.ReferralBonus,
		Type:        models.TransactionTypeReferral,
		TaskType:    models.TaskTypeReferral,
		Description: fmt.Sprintf("Referral bonus for joining via %s", referrer.Name),
	})
	if err != nil {
		return nil, err
	}

	referrerTxn, err := s.ledger.RecordEarning(ctx, ledger.EarningRequest{
		UserID:      referrer.ID,
		Amount:      s.policy.ReferralBonus,
		Type:        models.TransactionTypeReferral,
		TaskType:    models.TaskTypeReferral,
		Description: "Referral bonus for inviting a new user",
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(referrer.ID, notification.NewEvent(notification.EventWalletUpdated,
		fmt.Sprintf("You earned %s coins for a successful referral", referrerTxn.Amount),
		map[string]interface{}{"amount": referrerTxn.Amount}))
	return txn, nil
}

func (s *service) Status(ctx context.Context, userID uint) (*DailyStatus, error) {
	captchaCount, err := s.ledger.CountEarningsToday(ctx, userID, models.TaskTypeCaptcha)
	if err != nil {
		return nil, err
	}
	spinCount, err := s.ledger.CountEarningsToday(ctx, userID, models.TaskTypeSpinWheel)
	if err != nil {
		return nil, err
	}
	loginCount, err := s.ledger.CountEarningsToday(ctx, userID, models.TaskTypeDailyLogin)
	if err != nil {
		return nil, err
	}

	status := &DailyStatus{
		CaptchaRemaining:    int64(s.policy.CaptchaDailyLimit) - captchaCount,
		SpinsRemaining:      int64(s.policy.SpinDailyLimit) - spinCount,
		DailyLoginAvailable: loginCount == 0,
	}
	if status.CaptchaRemaining < 0 {
		status.CaptchaRemaining = 0
	}
	if status.SpinsRemaining < 0 {
		status.SpinsRemaining = 0
	}
	return status, nil
}
