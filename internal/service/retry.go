package service

import (
	"context"
	"errors"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
	"github.com/JonnyWalker81/heldairy/backend/pkg/deepseek"
)

// DefaultMaxAttempts bounds remote advice calls per request
const DefaultMaxAttempts = 2

// Outcome classifies the result of one remote call
type Outcome int

const (
	OutcomeValid Outcome = iota
	// OutcomeInvalid has content but other validation issues
	OutcomeInvalid
	// OutcomeEmpty has neither observations nor actions after normalization
	OutcomeEmpty
	OutcomeFormatError
	OutcomeTransportError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeEmpty:
		return "empty"
	case OutcomeFormatError:
		return "format_error"
	case OutcomeTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Decision is what the coordinator does after an attempt
type Decision int

const (
	// DecisionAccept keeps the attempt's payload
	DecisionAccept Decision = iota
	// DecisionRetry calls the remote service again
	DecisionRetry
	// DecisionFallback stops and uses the fixed safe payload
	DecisionFallback
)

func (d Decision) String() string {
	switch d {
	case DecisionAccept:
		return "accept"
	case DecisionRetry:
		return "retry"
	case DecisionFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// RetryPolicy is the attempt-bounded retry machine of the advice flow.
// It holds no state; the caller tracks the attempt number.
type RetryPolicy struct {
	MaxAttempts int
}

// DefaultRetryPolicy allows DefaultMaxAttempts calls
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts}
}

// Decide maps the outcome of attempt (1-based) to the next step
func (p RetryPolicy) Decide(attempt int, outcome Outcome) Decision {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	switch outcome {
	case OutcomeValid, OutcomeInvalid:
		// Normalization already truncated oversized lists
		return DecisionAccept
	case OutcomeFormatError:
		return DecisionFallback
	case OutcomeEmpty, OutcomeTransportError:
		if attempt < maxAttempts {
			return DecisionRetry
		}
		return DecisionFallback
	default:
		return DecisionFallback
	}
}

// classifyAdvice normalizes a remote result and classifies it
func classifyAdvice(payload models.AdvicePayload, err error) (models.AdvicePayload, Outcome) {
	if err != nil {
		if deepseek.IsFormatError(err) {
			return models.AdvicePayload{}, OutcomeFormatError
		}
		return models.AdvicePayload{}, OutcomeTransportError
	}

	normalized := payload.Normalized()
	if normalized.IsEmpty() {
		return normalized, OutcomeEmpty
	}
	if len(normalized.ValidationErrors()) > 0 {
		return normalized, OutcomeInvalid
	}
	return normalized, OutcomeValid
}

func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}
