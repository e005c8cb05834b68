package analysis

import (
	"time"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
)

// Fixed bucket keys of the categorical answers
var (
	sleepBuckets     = []string{"lt6", "6_7", "7_8", "gt8"}
	napBuckets       = []string{"none", "lt30", "30_60", "gt60"}
	stepsBuckets     = []string{"lt3k", "3_6k", "6_10k", "gt10k"}
	menstrualBuckets = []string{"period", "non_period", "irregular"}
)

// BuildInsightSummary computes the local weekly-insight statistics for the 7
// and 30 calendar days ending at end. Windows without entries are nil.
func BuildInsightSummary(entries []models.DailyEntry, end time.Time) models.InsightLocalSummary {
	short, long := TrailingWindows(entries, end)
	return models.InsightLocalSummary{
		Window7:  buildInsightWindow(short),
		Window30: buildInsightWindow(long),
	}
}

func buildInsightWindow(w *Window) *models.InsightWindow {
	if w.Len() == 0 {
		return nil
	}
	entries := w.Entries

	return &models.InsightWindow{
		Days:              w.Days,
		EntryCount:        len(entries),
		CompletionRate:    round2(float64(len(entries)) / float64(w.Days)),
		SleepDistribution: countOptions(entries, QuestionSleepDuration, sleepBuckets),
		NapDistribution:   countOptions(entries, QuestionNapDuration, napBuckets),
		StepsDistribution: countOptions(entries, QuestionDailySteps, stepsBuckets),
		SymptomMetrics:    insightSymptomMetrics(entries),
		ChillDays:         countAnswer(entries, QuestionChillExposure, "yes"),
		Medication:        medicationAdherence(entries),
		MenstrualCounts:   countOptions(entries, QuestionMenstrualStatus, menstrualBuckets),
	}
}

// insightSymptomMetrics expects entries oldest first
func insightSymptomMetrics(entries []models.DailyEntry) []models.InsightSymptomMetric {
	var out []models.InsightSymptomMetric
	for _, qid := range symptomMetrics {
		values := ExtractSeries(entries, qid).Values()
		if len(values) == 0 {
			continue
		}
		latest := round1(values[len(values)-1])
		out = append(out, models.InsightSymptomMetric{
			QuestionID:  qid,
			Average:     round1(mean(values)),
			LatestValue: &latest,
			Trend:       SimpleTrend(values),
		})
	}
	return out
}

// countOptions counts answers per bucket; every bucket key is present
func countOptions(entries []models.DailyEntry, questionID string, buckets []string) map[string]int {
	counts := make(map[string]int, len(buckets))
	for _, b := range buckets {
		counts[b] = 0
	}
	for i := range entries {
		v, ok := entries[i].Answer(questionID)
		if !ok {
			continue
		}
		if _, known := counts[v]; known {
			counts[v]++
		}
	}
	return counts
}

func countAnswer(entries []models.DailyEntry, questionID, want string) int {
	n := 0
	for i := range entries {
		if v, ok := entries[i].Answer(questionID); ok && v == want {
			n++
		}
	}
	return n
}

func medicationAdherence(entries []models.DailyEntry) models.MedicationAdherence {
	var m models.MedicationAdherence
	for i := range entries {
		v, _ := entries[i].Answer(QuestionMedication)
		switch v {
		case "on_time":
			m.OnTime++
		case "missed":
			m.Missed++
		case "na":
			m.NA++
		}
	}
	return m
}
