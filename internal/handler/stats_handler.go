package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"freelancehub/internal/service/stats"
	"freelancehub/internal/tracker"
)

type StatsHandler struct {
	stats  *stats.Service
	logger *zap.Logger
}

func NewStatsHandler(statsSvc *stats.Service, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{stats: statsSvc, logger: logger}
}

// GetProjectStats handles GET /projects/:id/stats.
func (h *StatsHandler) GetProjectStats(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	projectID, ok := intParam(c, "id")
	if !ok {
		return
	}

	result, err := h.stats.ProjectStats(c.Request.Context(), projectID, userID)
	if err != nil {
		h.respondError(c, "GetProjectStats", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetBillableAmount handles GET /projects/:id/billable.
func (h *StatsHandler) GetBillableAmount(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	projectID, ok := intParam(c, "id")
	if !ok {
		return
	}

	amount, project, err := h.stats.BillableAmount(c.Request.Context(), projectID, userID)
	if err != nil {
		h.respondError(c, "GetBillableAmount", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"billable_amount": amount,
		"currency":        project.Currency,
		"billing_mode":    project.BillingMode,
	})
}

// GetPeriodRates handles GET /projects/:id/period-rates.
func (h *StatsHandler) GetPeriodRates(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	projectID, ok := intParam(c, "id")
	if !ok {
		return
	}

	rates, err := h.stats.PeriodRates(c.Request.Context(), projectID, userID)
	if err != nil {
		h.respondError(c, "GetPeriodRates", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"period_rates": rates})
}

func (h *StatsHandler) respondError(c *gin.Context, op string, err error) {
	var notFoundErr *tracker.NotFoundError
	if errors.As(err, &notFoundErr) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
		return
	}
	h.logger.Error(op+" failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
