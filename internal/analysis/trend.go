package analysis

import (
	"math"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
)

// SimpleTrend compares the latest value of a chronological series with the
// mean of all earlier values. Fewer than two values is always stable.
func SimpleTrend(values []float64) models.TrendFlag {
	if len(values) < 2 {
		return models.TrendStable
	}
	latest := values[len(values)-1]
	delta := latest - mean(values[:len(values)-1])
	switch {
	case delta >= SimpleTrendDelta:
		return models.TrendRising
	case delta <= -SimpleTrendDelta:
		return models.TrendFalling
	default:
		return models.TrendStable
	}
}

// ClassifyTrend computes the detailed trend of a chronological series for a
// metric. The early and late sub-samples hold up to TrendSampleSize values
// each; for inverse metrics a rising value is reported as declining.
// It returns false when the series is too short to split.
func ClassifyTrend(metric string, values []float64) (models.DetailedTrend, bool) {
	k := min(TrendSampleSize, len(values)/2)
	if len(values) < 2 || k == 0 {
		return models.DetailedTrend{}, false
	}

	avgFirst := mean(values[:k])
	avgLast := mean(values[len(values)-k:])
	change := avgLast - avgFirst

	var magnitude float64
	if avgFirst != 0 {
		magnitude = change / avgFirst * 100
	}

	direction := models.DirectionStable
	switch {
	case change > DetailedTrendDelta:
		direction = models.DirectionImproving
	case change < -DetailedTrendDelta:
		direction = models.DirectionDeclining
	}
	if IsInverse(metric) {
		direction = flip(direction)
	}

	return models.DetailedTrend{
		Direction:   direction,
		Magnitude:   math.Abs(magnitude),
		Confidence:  trendConfidence(values),
		Description: trendDescription(direction, math.Abs(magnitude)),
	}, true
}

func flip(d models.Direction) models.Direction {
	switch d {
	case models.DirectionImproving:
		return models.DirectionDeclining
	case models.DirectionDeclining:
		return models.DirectionImproving
	default:
		return d
	}
}

func trendConfidence(values []float64) models.Confidence {
	switch {
	case len(values) >= HighConfidenceMinPoints && isConsistent(values):
		return models.ConfidenceHigh
	case len(values) >= MediumConfidenceMinPoints:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// isConsistent reports whether enough consecutive differences share a sign
func isConsistent(values []float64) bool {
	if len(values) < 3 {
		return false
	}
	var pos, neg int
	for i := 1; i < len(values); i++ {
		switch d := values[i] - values[i-1]; {
		case d > 0:
			pos++
		case d < 0:
			neg++
		}
	}
	n := float64(len(values) - 1)
	return float64(pos)/n >= ConsistentTrendRatio || float64(neg)/n >= ConsistentTrendRatio
}

func trendDescription(direction models.Direction, magnitude float64) string {
	if direction == models.DirectionStable {
		return "stable"
	}
	adverb := "slightly"
	switch {
	case magnitude > SignificantChangePct:
		adverb = "significantly"
	case magnitude > NoticeableChangePct:
		adverb = "noticeably"
	}
	return adverb + " " + string(direction)
}
