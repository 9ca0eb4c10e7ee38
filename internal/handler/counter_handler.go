package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/counter-service/internal/service"
)

// CounterHandler serves the counter API. Every store failure becomes a 500
// with a fixed message per endpoint; details only go to the log.
type CounterHandler struct {
	counter *service.CounterService
	logger  *zap.Logger
}

// NewCounterHandler creates a CounterHandler around the counter service.
func NewCounterHandler(counter *service.CounterService, logger *zap.Logger) *CounterHandler {
	return &CounterHandler{
		counter: counter,
		logger:  logger,
	}
}

// GetCount returns the current count.
// Route: GET /api/count
func (h *CounterHandler) GetCount(c *gin.Context) {
	count, err := h.counter.GetCount(c.Request.Context())
	if err != nil {
		h.fail(c, "getting count", "Failed to get count", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// Increment appends current+1 and returns it with its timestamp. The request
// body, if any, is ignored.
// Route: POST /api/count/increment
func (h *CounterHandler) Increment(c *gin.Context) {
	res, err := h.counter.Increment(c.Request.Context())
	if err != nil {
		h.fail(c, "incrementing count", "Failed to increment count", err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// History returns the last ten records, newest first.
// Route: GET /api/history
func (h *CounterHandler) History(c *gin.Context) {
	records, err := h.counter.History(c.Request.Context())
	if err != nil {
		h.fail(c, "getting history", "Failed to get history", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": records})
}

func (h *CounterHandler) fail(c *gin.Context, op, message string, err error) {
	h.logger.Error(op,
		zap.String("request_id", c.GetString("request_id")),
		zap.Error(err),
	)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}
