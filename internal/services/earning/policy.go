package earning

import (
	"time"

	"github.com/shopspring/decimal"
)

// Policy fixes the reward amounts and per-day limits for the built-in
// earning activities.
type Policy struct {
	CaptchaReward     decimal.Decimal
	CaptchaDailyLimit int
	CaptchaTTL        time.Duration

	SpinPrizes     []int64
	SpinDailyLimit int

	DailyLoginBase         decimal.Decimal
	DailyLoginStreak3Bonus decimal.Decimal
	DailyLoginStreak7Bonus decimal.Decimal

	ReferralBonus decimal.Decimal
}

// DefaultPolicy mirrors production reward values.
func DefaultPolicy() Policy {
	return Policy{
		CaptchaReward:     decimal.NewFromInt(2),
		CaptchaDailyLimit: 50,
		CaptchaTTL:        5 * time.Minute,

		SpinPrizes:     []int64{10, 20, 5, 50, 15, 100, 25, 30},
		SpinDailyLimit: 3,

		DailyLoginBase:         decimal.NewFromInt(10),
		DailyLoginStreak3Bonus: decimal.NewFromInt(5),
		DailyLoginStreak7Bonus: decimal.NewFromInt(15),

		ReferralBonus: decimal.NewFromInt(50),
	}
}

// loginReward computes the daily-login payout for a streak length.
func (p Policy) loginReward(streak int) decimal.Decimal {
	reward := p.DailyLoginBase
	switch {
	case streak >= 7:
		reward = reward.Add(p.DailyLoginStreak7Bonus)
	case streak >= 3:
		reward = reward.Add(p.DailyLoginStreak3Bonus)
	}
	return reward
}
