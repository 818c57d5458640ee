package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/application/registration"
	"github.com/crosslist/backend/internal/domain/integration"
)

// defaultOrderLookback bounds an unqualified order pull.
const defaultOrderLookback = 24 * time.Hour

// OrderHandler exposes cross-platform order pulling.
type OrderHandler struct {
	BaseHandler
	puller *registration.OrderPuller
	logger *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(puller *registration.OrderPuller, logger *zap.Logger) *OrderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderHandler{puller: puller, logger: logger}
}

// List handles GET /orders. from and to are RFC 3339 timestamps; when
// omitted the pull covers the last 24 hours.
func (h *OrderHandler) List(c *gin.Context) {
	now := time.Now()
	opts := integration.ListOptions{
		From:     now.Add(-defaultOrderLookback),
		To:       now,
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", 50),
	}

	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.BadRequest(c, "from must be an RFC 3339 timestamp")
			return
		}
		opts.From = from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.BadRequest(c, "to must be an RFC 3339 timestamp")
			return
		}
		opts.To = to
	}
	if opts.To.Before(opts.From) {
		h.BadRequest(c, "to must not be before from")
		return
	}

	result, err := h.puller.Pull(c.Request.Context(), opts)
	if err != nil {
		h.logger.Error("order pull failed", zap.Error(err))
		h.Internal(c, "order pull failed")
		return
	}
	h.Success(c, "", result)
}
