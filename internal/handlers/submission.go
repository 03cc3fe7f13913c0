package handlers

import (
	"github.com/gofiber/fiber/v2"

	"gigpay/internal/services/submission"
	"gigpay/internal/utils"
)

type SubmissionHandler struct {
	submissionService submission.Service
}

func NewSubmissionHandler(submissionService submission.Service) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService}
}

// CreateSubmission claims a task slot and records proof of work.
func (h *SubmissionHandler) CreateSubmission(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}

	var input struct {
		TaskID      uint   `json:"taskId"`
		Proof       string `json:"proof"`
		Attachments string `json:"attachments"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.TaskID == 0 {
		return utils.BadRequest(c, "taskId is required")
	}

	sub, err := h.submissionService.Create(c.Context(), actor.ID, input.TaskID, input.Proof, input.Attachments)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Created(c, sub)
}

func (h *SubmissionHandler) GetSubmission(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return utils.BadRequest(c, "invalid submission id")
	}

	sub, err := h.submissionService.Get(c.Context(), actor, uint(id))
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, sub)
}

// GetMySubmission returns the caller's submission for a given task.
func (h *SubmissionHandler) GetMySubmission(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}
	taskID, err := c.ParamsInt("taskId")
	if err != nil || taskID < 1 {
		return utils.BadRequest(c, "invalid task id")
	}

	sub, err := h.submissionService.GetMine(c.Context(), actor.ID, uint(taskID))
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, sub)
}

// ListTaskSubmissions lists submissions against a task for its reviewer.
func (h *SubmissionHandler) ListTaskSubmissions(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}
	taskID, err := c.ParamsInt("taskId")
	if err != nil || taskID < 1 {
		return utils.BadRequest(c, "invalid task id")
	}

	limit, offset := parsePaging(c)
	subs, total, err := h.submissionService.ListForTask(c.Context(), actor, uint(taskID), c.Query("status"), limit, offset)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Paginated(c, subs, total, limit, offset)
}

// ListMySubmissions lists the caller's own submissions.
func (h *SubmissionHandler) ListMySubmissions(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}

	limit, offset := parsePaging(c)
	subs, total, err := h.submissionService.ListForWorker(c.Context(), actor.ID, c.Query("status"), limit, offset)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Paginated(c, subs, total, limit, offset)
}

func (h *SubmissionHandler) ApproveSubmission(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return utils.BadRequest(c, "invalid submission id")
	}

	var input struct {
		Rating   *int   `json:"rating"`
		Feedback string `json:"feedback"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	result, err := h.submissionService.Approve(c.Context(), actor, uint(id), input.Rating, input.Feedback)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, result)
}

func (h *SubmissionHandler) RejectSubmission(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return utils.BadRequest(c, "invalid submission id")
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	sub, err := h.submissionService.Reject(c.Context(), actor, uint(id), input.Reason)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, sub)
}
