package analysis

import "github.com/JonnyWalker81/heldairy/backend/internal/models"

// BuildDailySummary aggregates the symptom and exercise metrics over the 7
// and 30 most recent entries. A window is nil when it has no entries or no metric values.
func BuildDailySummary(entries []models.DailyEntry) models.DailySummaryPayload {
	recent := MostRecent(entries, LongWindowDays)
	return models.DailySummaryPayload{
		Window7:  buildSummaryWindow(recent[:min(ShortWindowDays, len(recent))], ShortWindowDays),
		Window30: buildSummaryWindow(recent, LongWindowDays),
	}
}

// buildSummaryWindow expects entries newest first
func buildSummaryWindow(entries []models.DailyEntry, days int) *models.SummaryWindow {
	if len(entries) == 0 {
		return nil
	}

	var metrics []models.SummaryMetric
	for _, qid := range dailyMetrics {
		values := ExtractSeries(entries, qid).Values()
		if len(values) == 0 {
			continue
		}
		latest := round1(values[0])
		high := 0
		if IsInverse(qid) {
			high = countAtLeast(values, DailyHighThreshold)
		}
		metrics = append(metrics, models.SummaryMetric{
			QuestionID:  qid,
			Average:     round1(mean(values)),
			LatestValue: &latest,
			HighCount:   high,
			Trend:       SimpleTrend(reversed(values)),
		})
	}
	if len(metrics) == 0 {
		return nil
	}

	return &models.SummaryWindow{
		Days:       days,
		EntryCount: len(entries),
		Metrics:    metrics,
	}
}

func countAtLeast(values []float64, threshold float64) int {
	n := 0
	for _, v := range values {
		if v >= threshold {
			n++
		}
	}
	return n
}
