package handler

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/satyadur/nexora-api/internal/dto"
	"github.com/satyadur/nexora-api/internal/evaluation"
	"github.com/satyadur/nexora-api/internal/service"
	"github.com/satyadur/nexora-api/internal/utils"
)

// EvaluationHandler exposes the grading session over HTTP. Every mutation
// returns the full session state so the client can re-render marks, verdicts
// and totals from one payload.
type EvaluationHandler struct {
	service   service.EvaluationService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewEvaluationHandler constructs the handler.
func NewEvaluationHandler(service service.EvaluationService, validator *validator.Validate, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "evaluation_handler").Logger(),
	}
}

// Register attaches evaluation endpoints to the router group. Routes are
// keyed by submission id; question-level operations add a question id.
func (h *EvaluationHandler) Register(router fiber.Router) {
	router.Post("/:id/open", h.open)
	router.Get("/:id", h.get)
	router.Put("/:id/answers/:questionId/marks", h.setMarks)
	router.Put("/:id/answers/:questionId/verdict", h.setVerdict)
	router.Put("/:id/answers/:questionId/comment", h.setComment)
	router.Put("/:id/feedback", h.setFeedback)
	router.Post("/:id/draft", h.saveDraft)
	router.Post("/:id/draft/restore", h.restoreDraft)
	router.Delete("/:id/draft", h.discardDraft)
	router.Post("/:id/submit", h.submit)
	router.Delete("/:id", h.close)
}

func (h *EvaluationHandler) open(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	session, err := h.service.Open(c.Context(), id, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "evaluation session opened", session)
}

func (h *EvaluationHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	session, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "evaluation session retrieved", session)
}

func (h *EvaluationHandler) setMarks(c *fiber.Ctx) error {
	id, questionID, err := h.sessionAndQuestion(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.EvaluationMarksRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	session, err := h.service.SetMarks(c.Context(), id, questionID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "marks updated", session)
}

func (h *EvaluationHandler) setVerdict(c *fiber.Ctx) error {
	id, questionID, err := h.sessionAndQuestion(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.EvaluationVerdictRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	session, err := h.service.SetVerdict(c.Context(), id, questionID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "verdict recorded", session)
}

func (h *EvaluationHandler) setComment(c *fiber.Ctx) error {
	id, questionID, err := h.sessionAndQuestion(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.EvaluationCommentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	session, err := h.service.SetComment(c.Context(), id, questionID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "comment updated", session)
}

func (h *EvaluationHandler) setFeedback(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.EvaluationFeedbackRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	session, err := h.service.SetFeedback(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "feedback updated", session)
}

func (h *EvaluationHandler) saveDraft(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.SaveDraft(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "draft saved", fiber.Map{"submission_id": id})
}

func (h *EvaluationHandler) restoreDraft(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	session, err := h.service.RestoreDraft(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "draft restored", session)
}

func (h *EvaluationHandler) discardDraft(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DiscardDraft(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "draft discarded", fiber.Map{"submission_id": id})
}

func (h *EvaluationHandler) submit(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	session, err := h.service.Submit(c.Context(), id, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "evaluation finalized", session)
}

func (h *EvaluationHandler) close(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	h.service.Close(c.Context(), id)
	return utils.SendSuccess(c, "evaluation session closed", fiber.Map{"submission_id": id})
}

func (h *EvaluationHandler) sessionAndQuestion(c *fiber.Ctx) (uint, uint, error) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return 0, 0, err
	}
	questionID, err := parseUintParam(c, "questionId")
	if err != nil {
		return 0, 0, err
	}
	return id, questionID, nil
}

// handleError maps engine rejections onto HTTP statuses. Conflicts with the
// session lifecycle come back as 409, content rejections as 400 or 422.
func (h *EvaluationHandler) handleError(c *fiber.Ctx, err error) error {
	var notReady *evaluation.NotReadyError
	switch {
	case errors.Is(err, service.ErrEvaluationSessionNotFound):
		return utils.SendErrorCode(c, fiber.StatusNotFound, "no open evaluation session for this submission", "session_not_found")
	case errors.Is(err, evaluation.ErrSubmissionNotFound):
		return utils.SendErrorCode(c, fiber.StatusNotFound, "submission not found", "submission_not_found")
	case errors.Is(err, evaluation.ErrQuestionNotFound):
		return utils.SendErrorCode(c, fiber.StatusNotFound, "question not part of this submission", "question_not_found")
	case errors.Is(err, evaluation.ErrDraftNotFound):
		return utils.SendErrorCode(c, fiber.StatusNotFound, "no draft saved for this submission", "draft_not_found")
	case errors.Is(err, evaluation.ErrOutOfRange):
		return utils.SendErrorCode(c, fiber.StatusBadRequest, err.Error(), "marks_out_of_range")
	case errors.Is(err, evaluation.ErrInvalidVerdict):
		return utils.SendErrorCode(c, fiber.StatusBadRequest, err.Error(), "invalid_verdict")
	case errors.Is(err, evaluation.ErrInvalidForType):
		return utils.SendErrorCode(c, fiber.StatusUnprocessableEntity, "verdict is fixed for auto-marked questions", "verdict_not_editable")
	case errors.Is(err, evaluation.ErrSessionFinalized):
		return utils.SendErrorCode(c, fiber.StatusConflict, "evaluation already finalized", "session_finalized")
	case errors.Is(err, evaluation.ErrSessionBusy):
		return utils.SendErrorCode(c, fiber.StatusConflict, "a submit is already in flight", "session_busy")
	case errors.Is(err, evaluation.ErrSessionNotLoaded):
		return utils.SendErrorCode(c, fiber.StatusConflict, "session is not loaded", "session_not_loaded")
	case errors.Is(err, evaluation.ErrValidationRejected):
		return utils.SendErrorCode(c, fiber.StatusUnprocessableEntity, err.Error(), "validation_rejected")
	case errors.As(err, &notReady):
		message := fmt.Sprintf("submission is not ready: %d answers over maximum, %d awaiting review", notReady.OverMax, notReady.Pending)
		return utils.SendErrorCode(c, fiber.StatusUnprocessableEntity, message, "not_ready")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
