package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"gigpay/internal/repositories"
	"gigpay/internal/services/admin"
	"gigpay/internal/services/auth"
	"gigpay/internal/services/authz"
	"gigpay/internal/services/earning"
	"gigpay/internal/services/leaderboard"
	"gigpay/internal/services/ledger"
	"gigpay/internal/services/submission"
	"gigpay/internal/services/task"
	"gigpay/internal/utils"
)

// serviceError maps service and repository errors onto the HTTP
// statuses clients rely on. Anything unmapped is a 500 and gets logged.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repositories.ErrUserNotFound),
		errors.Is(err, repositories.ErrWalletNotFound),
		errors.Is(err, repositories.ErrTaskNotFound),
		errors.Is(err, repositories.ErrSubmissionNotFound),
		errors.Is(err, repositories.ErrTransactionNotFound):
		return utils.NotFound(c, err.Error())

	case errors.Is(err, authz.ErrForbidden),
		errors.Is(err, task.ErrNotApproved),
		errors.Is(err, admin.ErrCannotModifyAdmin):
		return utils.Forbidden(c, err.Error())

	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenRevoked):
		return utils.Unauthorized(c, err.Error())

	case errors.Is(err, auth.ErrAccountDisabled):
		return utils.Forbidden(c, err.Error())

	case errors.Is(err, ledger.ErrTransientFailure):
		return utils.Unavailable(c, err.Error())

	case errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, auth.ErrInvalidRole),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrAmountBelowMinimum),
		errors.Is(err, ledger.ErrInvalidWithdrawalMethod),
		errors.Is(err, ledger.ErrDailyLimitReached),
		errors.Is(err, ledger.ErrNotWithdrawal),
		errors.Is(err, ledger.ErrAlreadyProcessed),
		errors.Is(err, earning.ErrChallengeNotFound),
		errors.Is(err, earning.ErrWrongAnswer),
		errors.Is(err, earning.ErrInvalidReferral),
		errors.Is(err, earning.ErrSelfReferral),
		errors.Is(err, earning.ErrAlreadyReferred),
		errors.Is(err, task.ErrInvalidReward),
		errors.Is(err, task.ErrInvalidSlots),
		errors.Is(err, task.ErrInvalidCategory),
		errors.Is(err, task.ErrNotEditable),
		errors.Is(err, task.ErrSlotShrink),
		errors.Is(err, submission.ErrTaskNotAvailable),
		errors.Is(err, submission.ErrSlotsExhausted),
		errors.Is(err, submission.ErrAlreadySubmitted),
		errors.Is(err, submission.ErrOwnTask),
		errors.Is(err, submission.ErrAlreadyApproved),
		errors.Is(err, submission.ErrAlreadyRejected),
		errors.Is(err, submission.ErrInvalidRating),
		errors.Is(err, submission.ErrEmptyProof),
		errors.Is(err, admin.ErrTaskAlreadyReviewed),
		errors.Is(err, leaderboard.ErrInvalidSort):
		return utils.BadRequest(c, err.Error())
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("unhandled service error")
	return utils.InternalError(c, "internal server error")
}

// parsePaging reads limit/offset query params with sane bounds.
func parsePaging(c *fiber.Ctx) (int, int) {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
