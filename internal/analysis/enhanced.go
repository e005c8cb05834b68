package analysis

import (
	"fmt"
	"time"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
)

// BuildEnhancedWeeklySummary analyses the 7 days ending at end: basic metrics,
// detailed trends, anomalies, improvements, concerns and the change against
// the previous week. It returns nil when fewer than EnhancedMinEntries
// entries fall in the week.
func BuildEnhancedWeeklySummary(entries []models.DailyEntry, end time.Time) *models.EnhancedWeeklySummary {
	week := TrailingWindow(entries, end, ShortWindowDays)
	if week.Len() < EnhancedMinEntries {
		return nil
	}

	trends := analyzeTrends(week.Entries)
	anomalies := DetectAllAnomalies(week.Entries, enhancedMetrics)

	return &models.EnhancedWeeklySummary{
		BasicMetrics:    buildBasicMetrics(week.Entries),
		TrendAnalysis:   trends,
		Anomalies:       anomalies,
		Improvements:    improvements(trends),
		ConcernPatterns: concerns(trends, anomalies),
		WeekOverWeek:    WeekOverWeek(entries, end),
	}
}

// buildBasicMetrics expects entries oldest first
func buildBasicMetrics(entries []models.DailyEntry) models.SummaryWindow {
	window := models.SummaryWindow{Days: ShortWindowDays, EntryCount: len(entries)}
	for _, qid := range enhancedMetrics {
		values := ExtractSeries(entries, qid).Values()
		if len(values) == 0 {
			continue
		}
		latest := values[len(values)-1]
		window.Metrics = append(window.Metrics, models.SummaryMetric{
			QuestionID:  qid,
			Average:     mean(values),
			LatestValue: &latest,
			HighCount:   countAtLeast(values, EnhancedHighThreshold),
			Trend:       SimpleTrend(values),
		})
	}
	return window
}

func analyzeTrends(entries []models.DailyEntry) []models.MetricTrend {
	var trends []models.MetricTrend
	for _, qid := range enhancedMetrics {
		t, ok := ClassifyTrend(qid, ExtractSeries(entries, qid).Values())
		if !ok {
			continue
		}
		trends = append(trends, models.MetricTrend{Metric: qid, DetailedTrend: t})
	}
	return trends
}

func improvements(trends []models.MetricTrend) []string {
	var out []string
	for _, t := range trends {
		if t.Direction != models.DirectionImproving {
			continue
		}
		if t.Confidence != models.ConfidenceHigh && t.Confidence != models.ConfidenceMedium {
			continue
		}
		out = append(out, DisplayName(t.Metric)+" "+t.Description)
	}
	return out
}

func concerns(trends []models.MetricTrend, anomalies []models.AnomalyEvent) []string {
	var out []string
	for _, t := range trends {
		if t.Direction == models.DirectionDeclining &&
			t.Confidence == models.ConfidenceHigh &&
			t.Magnitude > ConcernMagnitudePct {
			out = append(out, fmt.Sprintf("%s worsening (%d%%)", DisplayName(t.Metric), int(t.Magnitude)))
		}
	}

	severe := 0
	for _, a := range anomalies {
		if a.Severity != models.SeveritySevere {
			continue
		}
		if severe == MaxSevereConcerns {
			break
		}
		severe++
		out = append(out, fmt.Sprintf("%s %s unusual (%g)", a.Date, DisplayName(a.Metric), a.Value))
	}
	return out
}

// WeekOverWeek returns the percent change of each metric's mean between the
// week ending at end and the week before it. It returns nil unless both weeks
// have at least WeekOverWeekMinEntries entries. A zero previous mean reports 0.
func WeekOverWeek(entries []models.DailyEntry, end time.Time) map[string]float64 {
	thisWeek := TrailingWindow(entries, end, ShortWindowDays)
	lastWeek := TrailingWindow(entries, models.DateOf(end).AddDate(0, 0, -ShortWindowDays), ShortWindowDays)
	if thisWeek.Len() < WeekOverWeekMinEntries || lastWeek.Len() < WeekOverWeekMinEntries {
		return nil
	}

	changes := make(map[string]float64)
	for _, qid := range enhancedMetrics {
		thisValues := ExtractSeries(thisWeek.Entries, qid).Values()
		lastValues := ExtractSeries(lastWeek.Entries, qid).Values()
		if len(thisValues) == 0 || len(lastValues) == 0 {
			continue
		}
		var change float64
		if lastAvg := mean(lastValues); lastAvg != 0 {
			change = (mean(thisValues) - lastAvg) / lastAvg * 100
		}
		changes[qid] = change
	}
	return changes
}
