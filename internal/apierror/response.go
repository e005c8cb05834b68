package apierror

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ContentTypeProblemJSON is the media type of problem documents
const ContentTypeProblemJSON = "application/problem+json"

// RequestIDKey is the gin context key holding the request id
const RequestIDKey = "request_id"

// WriteProblem writes problem to c and sets Retry-After when present
func WriteProblem(c *gin.Context, problem *ProblemDetails) {
	if problem.Instance == "" && c.Request != nil {
		problem.Instance = c.Request.URL.Path
	}
	if problem.RetryAfter != nil {
		c.Header("Retry-After", strconv.Itoa(*problem.RetryAfter))
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.JSON(problem.Status, problem)
}

// Abort writes problem and stops the handler chain
func Abort(c *gin.Context, problem *ProblemDetails) {
	WriteProblem(c, problem)
	c.Abort()
}

// GetRequestID returns the request id set by the logger middleware, falling
// back to the X-Request-ID header
func GetRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// NewValidationError reports every failed field at once
func NewValidationError(requestID string, errors []FieldError) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeValidation,
		Title:       TitleValidation,
		Status:      http.StatusBadRequest,
		Detail:      "One or more fields failed validation",
		RequestID:   requestID,
		UserMessage: "Please check your answers and try again",
		Errors:      errors,
	}
}

func NewBadRequestError(requestID, detail, userMessage string) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeBadRequest,
		Title:       TitleBadRequest,
		Status:      http.StatusBadRequest,
		Detail:      detail,
		RequestID:   requestID,
		UserMessage: userMessage,
	}
}

func NewNotFoundError(requestID, resource, id string) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeNotFound,
		Title:       TitleNotFound,
		Status:      http.StatusNotFound,
		Detail:      fmt.Sprintf("%s '%s' was not found", resource, id),
		RequestID:   requestID,
		UserMessage: fmt.Sprintf("The requested %s could not be found", resource),
	}
}

func NewConflictError(requestID, detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeConflict,
		Title:       TitleConflict,
		Status:      http.StatusConflict,
		Detail:      detail,
		RequestID:   requestID,
		UserMessage: "This action conflicts with existing data",
	}
}

// NewRateLimitError tells the client to retry after retryAfter seconds
func NewRateLimitError(requestID string, retryAfter int) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeRateLimit,
		Title:       TitleRateLimit,
		Status:      http.StatusTooManyRequests,
		Detail:      fmt.Sprintf("Rate limit exceeded, retry after %d seconds", retryAfter),
		RequestID:   requestID,
		UserMessage: "Too many requests. Please wait before trying again.",
		RetryAfter:  &retryAfter,
	}
}

func NewUnauthorizedError(requestID string) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeUnauthorized,
		Title:       TitleUnauthorized,
		Status:      http.StatusUnauthorized,
		Detail:      "Authentication is required to access this resource",
		RequestID:   requestID,
		UserMessage: "Please sign in to continue",
		Action:      "authenticate",
	}
}

func NewForbiddenError(requestID string) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeForbidden,
		Title:       TitleForbidden,
		Status:      http.StatusForbidden,
		Detail:      "You do not have permission to access this resource",
		RequestID:   requestID,
		UserMessage: "You don't have permission to perform this action",
	}
}

// NewInternalError hides the cause; log it server side
func NewInternalError(requestID string) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeInternal,
		Title:       TitleInternal,
		Status:      http.StatusInternalServerError,
		Detail:      "An unexpected error occurred",
		RequestID:   requestID,
		UserMessage: "Something went wrong. Please try again later.",
	}
}

func NewServiceUnavailableError(requestID string, retryAfter int) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeUnavailable,
		Title:       TitleUnavailable,
		Status:      http.StatusServiceUnavailable,
		Detail:      "The service is temporarily unavailable",
		RequestID:   requestID,
		UserMessage: "Service is temporarily unavailable. Please try again later.",
		RetryAfter:  &retryAfter,
	}
}

func NewInvalidEntryIDError(requestID, field, value string) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeInvalidEntryID,
		Title:       TitleInvalidEntryID,
		Status:      http.StatusBadRequest,
		Detail:      fmt.Sprintf("Field '%s' must be a UUIDv7, got '%s'", field, value),
		RequestID:   requestID,
		UserMessage: "Invalid entry identifier",
		Errors: []FieldError{
			{Field: field, Message: "must be a valid UUIDv7", Code: "invalid_entry_id"},
		},
	}
}

func NewFutureTimestampError(requestID, field string) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeFutureTimestamp,
		Title:       TitleFutureTimestamp,
		Status:      http.StatusBadRequest,
		Detail:      fmt.Sprintf("Field '%s' embeds a time more than 1 minute in the future", field),
		RequestID:   requestID,
		UserMessage: "Please check your device clock and try again",
		Errors: []FieldError{
			{Field: field, Message: "time cannot be more than 1 minute in the future", Code: "future_timestamp"},
		},
	}
}

// NewAIDisabledError is returned when remote advice is turned off
func NewAIDisabledError(requestID string) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeAIDisabled,
		Title:       TitleAIDisabled,
		Status:      http.StatusConflict,
		Detail:      "AI advice is disabled",
		RequestID:   requestID,
		UserMessage: "AI advice is turned off",
		Action:      "enable_ai",
	}
}

// NewAIUnavailableError covers a missing API key and transport failures
func NewAIUnavailableError(requestID, detail string, retryAfter int) *ProblemDetails {
	p := &ProblemDetails{
		Type:        TypeAIUnavailable,
		Title:       TitleAIUnavailable,
		Status:      http.StatusServiceUnavailable,
		Detail:      detail,
		RequestID:   requestID,
		UserMessage: "Advice is not available right now. Please try again later.",
	}
	if retryAfter > 0 {
		p.RetryAfter = &retryAfter
	}
	return p
}

func NewAIInvalidResponseError(requestID string) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeAIInvalidResponse,
		Title:       TitleAIInvalidResponse,
		Status:      http.StatusBadGateway,
		Detail:      "The AI service returned a response that could not be used",
		RequestID:   requestID,
		UserMessage: "Could not read the generated advice. Please try again.",
	}
}

func NewNoDataError(requestID, detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeNoData,
		Title:       TitleNoData,
		Status:      http.StatusNotFound,
		Detail:      detail,
		RequestID:   requestID,
		UserMessage: "Keep recording daily entries to unlock this view",
	}
}
