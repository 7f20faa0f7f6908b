package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/okazaki0127/git-overtime-metrics/internal/aggregator"
	apperrors "github.com/okazaki0127/git-overtime-metrics/internal/errors"
	"github.com/okazaki0127/git-overtime-metrics/internal/storage"
)

// Handler handles API requests
type Handler struct {
	aggregator aggregator.Aggregator
	store      storage.Store
}

// NewHandler creates a new API handler
func NewHandler(agg aggregator.Aggregator, store storage.Store) *Handler {
	return &Handler{
		aggregator: agg,
		store:      store,
	}
}

// GetRecords returns all persisted overtime records
// GET /api/v1/records
func (h *Handler) GetRecords(c *gin.Context) {
	records, err := h.store.AllRecords(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": records,
	})
}

// GetSummary returns overall summary statistics
// GET /api/v1/summary
func (h *Handler) GetSummary(c *gin.Context) {
	summary, err := h.aggregator.Summarize(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": summary,
	})
}

// GetDailySummary returns per-date total hours
// GET /api/v1/summary/daily
func (h *Handler) GetDailySummary(c *gin.Context) {
	daily, err := h.aggregator.Daily(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": daily,
	})
}

// GetRuns returns all analysis runs
// GET /api/v1/runs
func (h *Handler) GetRuns(c *gin.Context) {
	runs, err := h.store.ListRuns(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": runs,
	})
}

// HealthCheck returns the service health
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// respondError sends an error response
func respondError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		status := http.StatusInternalServerError
		switch appErr.Code {
		case apperrors.ErrCodeNotFound:
			status = http.StatusNotFound
		case apperrors.ErrCodeUnauthorized:
			status = http.StatusUnauthorized
		case apperrors.ErrCodeBadRequest:
			status = http.StatusBadRequest
		case apperrors.ErrCodeRateLimited:
			status = http.StatusTooManyRequests
		}
		c.JSON(status, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": err.Error(),
		},
	})
}
