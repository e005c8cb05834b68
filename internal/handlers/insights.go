package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JonnyWalker81/heldairy/backend/internal/apierror"
	"github.com/JonnyWalker81/heldairy/backend/internal/models"
	"github.com/JonnyWalker81/heldairy/backend/internal/service"
)

// InsightsHandler serves weekly insights and the local statistics behind them
type InsightsHandler struct {
	weekly   service.WeeklyInsightService
	insights service.InsightService
	now      func() time.Time
}

func NewInsightsHandler(weekly service.WeeklyInsightService, insights service.InsightService) *InsightsHandler {
	return &InsightsHandler{weekly: weekly, insights: insights, now: time.Now}
}

// GetWeekly returns the weekly insight, generating it when needed
// GET /api/v1/insights/weekly?force=true
func (h *InsightsHandler) GetWeekly(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	force, ok := queryBool(c, "force")
	if !ok {
		return
	}

	result, err := h.weekly.GetWeeklyInsight(c.Request.Context(), userID, force)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RefreshWeekly starts a forced generation in the background
// POST /api/v1/insights/weekly/refresh
func (h *InsightsHandler) RefreshWeekly(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	result, err := h.weekly.RefreshAsync(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if result.Status == models.WeeklyStatusPending {
		status = http.StatusAccepted
	}
	c.JSON(status, result)
}

// History lists stored weekly insights, newest week first
// GET /api/v1/insights/weekly/history?limit=
func (h *InsightsHandler) History(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}

	records, err := h.weekly.History(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if records == nil {
		records = []models.WeeklyInsightRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"insights": records})
}

// LocalSummary returns the 7 and 30 day statistics ending at ?end (default today)
// GET /api/v1/insights/local-summary
func (h *InsightsHandler) LocalSummary(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	end, ok := h.endDate(c)
	if !ok {
		return
	}

	summary, err := h.insights.LocalSummary(c.Request.Context(), userID, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Enhanced returns the detailed weekly analysis ending at ?end (default today)
// GET /api/v1/insights/enhanced
func (h *InsightsHandler) Enhanced(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	end, ok := h.endDate(c)
	if !ok {
		return
	}

	summary, err := h.insights.EnhancedSummary(c.Request.Context(), userID, end)
	if err != nil {
		respondError(c, err)
		return
	}
	if summary == nil {
		apierror.WriteProblem(c, apierror.NewNoDataError(apierror.GetRequestID(c),
			"at least 3 entries in the 7 days ending "+models.FormatDate(end)+" are required"))
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *InsightsHandler) endDate(c *gin.Context) (time.Time, bool) {
	raw := c.Query("end")
	if raw == "" {
		return models.DateOf(h.now().UTC()), true
	}
	end, err := models.ParseDate(raw)
	if err != nil {
		apierror.WriteProblem(c, apierror.NewValidationError(apierror.GetRequestID(c), []apierror.FieldError{
			{Field: "end", Message: "must be a YYYY-MM-DD date", Code: "invalid_format"},
		}))
		return time.Time{}, false
	}
	return end, true
}
