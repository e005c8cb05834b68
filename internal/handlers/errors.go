package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/JonnyWalker81/heldairy/backend/internal/apierror"
	"github.com/JonnyWalker81/heldairy/backend/internal/logger"
	"github.com/JonnyWalker81/heldairy/backend/internal/middleware"
	"github.com/JonnyWalker81/heldairy/backend/internal/service"
)

// respondError maps service errors to problem documents. Unknown errors are
// logged and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	requestID := apierror.GetRequestID(c)
	log := logger.Ctx(c.Request.Context())

	switch {
	case errors.Is(err, service.ErrEntryNotFound):
		apierror.WriteProblem(c, apierror.NewNotFoundError(requestID, "entry", c.Param("id")))
	case errors.Is(err, service.ErrTrackingNotFound):
		apierror.WriteProblem(c, apierror.NewNotFoundError(requestID, "advice item", c.Param("id")))
	case errors.Is(err, service.ErrEntryIDFuture):
		apierror.WriteProblem(c, apierror.NewFutureTimestampError(requestID, "id"))
	case errors.Is(err, service.ErrInvalidEntryID), errors.Is(err, service.ErrEntryIDVersion):
		apierror.WriteProblem(c, apierror.NewInvalidEntryIDError(requestID, "id", c.Param("id")))
	case errors.Is(err, service.ErrInvalidEntry):
		detail := strings.TrimPrefix(err.Error(), service.ErrInvalidEntry.Error()+": ")
		apierror.WriteProblem(c, apierror.NewBadRequestError(requestID, detail, "Please check your input and try again"))
	case errors.Is(err, service.ErrAIDisabled):
		apierror.WriteProblem(c, apierror.NewAIDisabledError(requestID))
	case errors.Is(err, service.ErrMissingAPIKey):
		apierror.WriteProblem(c, apierror.NewAIUnavailableError(requestID, err.Error(), 0))
	case errors.Is(err, service.ErrInvalidAIResponse):
		apierror.WriteProblem(c, apierror.NewAIInvalidResponseError(requestID))
	case errors.Is(err, context.Canceled):
		// client went away; the status is only seen in logs
		log.Info("request cancelled", logger.Err(err))
		apierror.WriteProblem(c, apierror.NewServiceUnavailableError(requestID, 1))
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("request timed out", logger.Err(err))
		apierror.WriteProblem(c, apierror.NewAIUnavailableError(requestID, "the request timed out", 30))
	default:
		log.Error("request failed", logger.Err(err))
		apierror.WriteProblem(c, apierror.NewInternalError(requestID))
	}
}

// requireUser returns the authenticated user id or writes a 401
func requireUser(c *gin.Context) (string, bool) {
	userID := middleware.UserID(c)
	if userID == "" {
		apierror.WriteProblem(c, apierror.NewUnauthorizedError(apierror.GetRequestID(c)))
		return "", false
	}
	return userID, true
}

// queryInt parses an optional positive integer query parameter
func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		apierror.WriteProblem(c, apierror.NewValidationError(apierror.GetRequestID(c), []apierror.FieldError{
			{Field: name, Message: "must be a non-negative integer", Code: "invalid_format"},
		}))
		return 0, false
	}
	return v, true
}

// queryBool parses an optional boolean query parameter
func queryBool(c *gin.Context, name string) (bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		apierror.WriteProblem(c, apierror.NewValidationError(apierror.GetRequestID(c), []apierror.FieldError{
			{Field: name, Message: "must be true or false", Code: "invalid_format"},
		}))
		return false, false
	}
	return v, true
}
