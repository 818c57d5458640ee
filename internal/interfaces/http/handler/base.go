// Package handler exposes the registration, job and order operations over
// HTTP using the standard response envelope.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crosslist/backend/internal/interfaces/http/dto"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// getRequestID extracts the request ID set by the RequestID middleware.
func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// Success sends a 200 success response.
func (h *BaseHandler) Success(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(http.StatusOK, message, data))
}

// Created sends a 201 created response.
func (h *BaseHandler) Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(http.StatusCreated, message, data))
}

// PartialSuccess sends a 207 response for runs where some targets succeeded
// and some failed.
func (h *BaseHandler) PartialSuccess(c *gin.Context, message string, data any) {
	c.JSON(http.StatusMultiStatus, dto.NewFailResponse(http.StatusMultiStatus, message, data))
}

// Error sends an error response with the given status code.
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(statusCode, code, message, getRequestID(c)))
}

// ErrorWithData sends an error response that still carries a payload.
func (h *BaseHandler) ErrorWithData(c *gin.Context, statusCode int, code, message string, data any) {
	c.JSON(statusCode, dto.NewErrorResponseWithData(statusCode, code, message, getRequestID(c), data))
}

// ErrorWithCode sends an error response, deriving the status from the code.
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response.
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response.
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// UnprocessableEntity sends a 422 response.
func (h *BaseHandler) UnprocessableEntity(c *gin.Context, code, message string) {
	h.Error(c, http.StatusUnprocessableEntity, code, message)
}

// Internal sends a 500 response.
func (h *BaseHandler) Internal(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}
