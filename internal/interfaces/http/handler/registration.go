package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/application/registration"
	"github.com/crosslist/backend/internal/interfaces/http/dto"
)

// RegistrationHandler handles product registration endpoints.
type RegistrationHandler struct {
	BaseHandler
	orchestrator *registration.Orchestrator
	logger       *zap.Logger
}

// NewRegistrationHandler creates a new RegistrationHandler.
func NewRegistrationHandler(orchestrator *registration.Orchestrator, logger *zap.Logger) *RegistrationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// Register handles POST /registrations. Partial failure is reported as a
// 207 with the per-target breakdown, total failure as a 502, and runs where
// every target lacked a category mapping as a 422.
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req dto.RegisterProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeInvalidJSON), dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	input, err := req.ToInput()
	if err != nil {
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeValidation), dto.ErrCodeValidation, err.Error())
		return
	}

	result, err := h.orchestrator.RegisterProduct(c.Request.Context(), input)
	if err != nil {
		h.registrationError(c, err)
		return
	}
	h.writeResult(c, result, true)
}

// Retry handles POST /registrations/:id/retry. It re-dispatches every
// failed target of a terminal job as a new job.
func (h *RegistrationHandler) Retry(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid job id")
		return
	}

	result, err := h.orchestrator.RetryRegistration(c.Request.Context(), jobID)
	if err != nil {
		h.registrationError(c, err)
		return
	}
	h.writeResult(c, result, false)
}

func (h *RegistrationHandler) writeResult(c *gin.Context, result *registration.Result, created bool) {
	switch {
	case result.FailureCount == 0:
		if created {
			h.Created(c, "product registered on all platforms", result)
			return
		}
		h.Success(c, "retry succeeded on all platforms", result)
	case result.SuccessCount > 0:
		h.PartialSuccess(c, "product registered on some platforms", result)
	case len(result.NeedsManualMapping) == result.FailureCount:
		h.ErrorWithData(c, dto.GetHTTPStatus(dto.ErrCodeCategoryUnmapped), dto.ErrCodeCategoryUnmapped,
			"no category mapping for any requested platform", result)
	default:
		h.ErrorWithData(c, dto.GetHTTPStatus(dto.ErrCodeDispatchFailed), dto.ErrCodeDispatchFailed,
			"registration failed on every platform", result)
	}
}

func (h *RegistrationHandler) registrationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, registration.ErrJobNotFound):
		h.NotFound(c, "job not found")
	case errors.Is(err, registration.ErrJobNotTerminal),
		errors.Is(err, registration.ErrJobNotRetryable),
		errors.Is(err, registration.ErrNothingToRetry):
		h.UnprocessableEntity(c, dto.ErrCodeJobNotRetryable, err.Error())
	case errors.Is(err, registration.ErrNoPlatforms),
		errors.Is(err, registration.ErrListingRequired),
		errors.Is(err, registration.ErrDuplicatePlatform):
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeValidation), dto.ErrCodeValidation, err.Error())
	default:
		h.logger.Error("registration failed", zap.Error(err))
		h.Internal(c, "registration failed")
	}
}
