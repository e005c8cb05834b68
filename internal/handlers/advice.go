package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"github.com/JonnyWalker81/heldairy/backend/internal/apierror"
	"github.com/JonnyWalker81/heldairy/backend/internal/logger"
	"github.com/JonnyWalker81/heldairy/backend/internal/models"
	"github.com/JonnyWalker81/heldairy/backend/internal/service"
)

// adviceTimeout bounds one shared generation, including retries
const adviceTimeout = 3 * time.Minute

// AdviceHandler serves advice generation, advice tracking and feedback
type AdviceHandler struct {
	advice   service.AdviceService
	tracking service.TrackingService
	group    singleflight.Group
}

func NewAdviceHandler(advice service.AdviceService, tracking service.TrackingService) *AdviceHandler {
	return &AdviceHandler{advice: advice, tracking: tracking}
}

// GenerateAdvice handles POST /api/v1/entries/:id/advice. Concurrent requests
// for the same entry share one generation.
func (h *AdviceHandler) GenerateAdvice(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	entryID := c.Param("id")
	ctx := logger.WithEntryID(c.Request.Context(), entryID)

	v, err, shared := h.group.Do(userID+"|"+entryID, func() (any, error) {
		// A disconnecting caller must not cancel the generation others wait on
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), adviceTimeout)
		defer cancel()
		return h.advice.GenerateForEntry(genCtx, userID, entryID)
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if shared {
		logger.Ctx(ctx).Debug("advice generation shared with a concurrent request")
	}
	c.JSON(http.StatusOK, v.(*models.AdviceRecord))
}

// GetAdvice handles GET /api/v1/entries/:id/advice
func (h *AdviceHandler) GetAdvice(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	record, err := h.advice.GetForEntry(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if record == nil {
		apierror.WriteProblem(c, apierror.NewNotFoundError(apierror.GetRequestID(c), "advice", c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, record)
}

// ListTracking handles GET /api/v1/entries/:id/tracking
func (h *AdviceHandler) ListTracking(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	items, err := h.tracking.ListForEntry(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []models.AdviceTracking{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// RecordFeedback handles POST /api/v1/tracking/:id/feedback
func (h *AdviceHandler) RecordFeedback(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	item, err := h.tracking.RecordFeedback(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Effectiveness handles GET /api/v1/tracking/effectiveness
func (h *AdviceHandler) Effectiveness(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	summary, err := h.tracking.Effectiveness(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
