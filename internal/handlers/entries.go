package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/JonnyWalker81/heldairy/backend/internal/apierror"
	"github.com/JonnyWalker81/heldairy/backend/internal/logger"
	"github.com/JonnyWalker81/heldairy/backend/internal/models"
	"github.com/JonnyWalker81/heldairy/backend/internal/service"
)

// EntryHandler serves daily entries and their summaries
type EntryHandler struct {
	entries   service.EntryService
	summaries service.SummaryService
}

func NewEntryHandler(entries service.EntryService, summaries service.SummaryService) *EntryHandler {
	return &EntryHandler{entries: entries, summaries: summaries}
}

// UpsertEntry handles PUT /api/v1/entries. An entry for the same date is replaced.
func (h *EntryHandler) UpsertEntry(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.UpsertEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	entry, err := h.entries.UpsertEntry(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// ListEntries handles GET /api/v1/entries?limit=
func (h *EntryHandler) ListEntries(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}

	entries, err := h.entries.ListEntries(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if entries == nil {
		entries = []models.DailyEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// GetEntry handles GET /api/v1/entries/:id
func (h *EntryHandler) GetEntry(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	entry, err := h.entries.GetEntry(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// DeleteEntry handles DELETE /api/v1/entries/:id
func (h *EntryHandler) DeleteEntry(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.entries.DeleteEntry(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RegenerateSummary handles POST /api/v1/entries/:id/summary
func (h *EntryHandler) RegenerateSummary(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	ctx := logger.WithEntryID(c.Request.Context(), c.Param("id"))
	record, err := h.summaries.RegenerateForEntry(ctx, userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// writeBindError reports every failed field of a binding error, or a
// malformed body when the JSON itself could not be read
func writeBindError(c *gin.Context, err error) {
	requestID := apierror.GetRequestID(c)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		apierror.WriteProblem(c, apierror.NewBadRequestError(requestID, err.Error(), "Invalid JSON format"))
		return
	}

	fields := make([]apierror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apierror.FieldError{
			Field:   fe.Field(),
			Message: "failed " + fe.Tag() + " validation",
			Code:    fe.Tag(),
		})
	}
	apierror.WriteProblem(c, apierror.NewValidationError(requestID, fields))
}
