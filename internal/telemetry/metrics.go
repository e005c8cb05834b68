package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("heldairy.backend")

var (
	adviceGenerated  metric.Int64Counter
	aiAttempts       metric.Int64Counter
	aiCallDuration   metric.Float64Histogram
	weeklyOutcomes   metric.Int64Counter
	feedbackRecorded metric.Int64Counter
	workerRuns       metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		adviceGenerated, err = meter.Int64Counter(
			"heldairy_advice_generated_total",
			metric.WithDescription("Advice payloads persisted, by source"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		aiAttempts, err = meter.Int64Counter(
			"heldairy_ai_attempts_total",
			metric.WithDescription("Remote advice service calls, by operation and outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		aiCallDuration, err = meter.Float64Histogram(
			"heldairy_ai_call_duration_seconds",
			metric.WithDescription("Duration of remote advice service calls"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		weeklyOutcomes, err = meter.Int64Counter(
			"heldairy_weekly_insight_total",
			metric.WithDescription("Weekly insight requests, by resulting status"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		feedbackRecorded, err = meter.Int64Counter(
			"heldairy_advice_feedback_total",
			metric.WithDescription("Advice feedback submissions, by feedback kind"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		workerRuns, err = meter.Int64Counter(
			"heldairy_weekly_worker_users_total",
			metric.WithDescription("Users processed by the weekly worker, by result"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// RecordAdvice counts a persisted advice payload
func RecordAdvice(ctx context.Context, source string) {
	if err := initMetrics(); err != nil {
		return
	}
	adviceGenerated.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// RecordAIAttempt counts one remote call and its latency.
// operation is "advice" or "weekly"; outcome is the classified result.
func RecordAIAttempt(ctx context.Context, operation, outcome string, elapsed time.Duration) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)
	aiAttempts.Add(ctx, 1, attrs)
	aiCallDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordWeekly counts a weekly insight request by status
func RecordWeekly(ctx context.Context, status string, cached bool) {
	if err := initMetrics(); err != nil {
		return
	}
	weeklyOutcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
		attribute.Bool("cached", cached),
	))
}

// RecordFeedback counts a feedback submission
func RecordFeedback(ctx context.Context, feedback string) {
	if err := initMetrics(); err != nil {
		return
	}
	feedbackRecorded.Add(ctx, 1, metric.WithAttributes(attribute.String("feedback", feedback)))
}

// RecordWorkerUser counts one user handled by the weekly worker
func RecordWorkerUser(ctx context.Context, result string) {
	if err := initMetrics(); err != nil {
		return
	}
	workerRuns.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
