package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
)

func TestBuildInsightSummary(t *testing.T) {
	entries := []models.DailyEntry{
		entry(0, map[string]string{
			QuestionSleepDuration: "7_8",
			QuestionChillExposure: "yes",
			QuestionMedication:    "on_time",
			MetricHeadache:        "5",
		}),
		entry(1, map[string]string{
			QuestionSleepDuration:   "lt6",
			QuestionMedication:      "missed",
			QuestionMenstrualStatus: "period",
			MetricHeadache:          "4",
		}),
		entry(3, map[string]string{
			QuestionSleepDuration: "7_8",
			QuestionChillExposure: "no",
			QuestionMedication:    "na",
			QuestionDailySteps:    "weird",
			MetricHeadache:        "2",
		}),
		entry(10, map[string]string{
			QuestionSleepDuration: "gt8",
			QuestionMedication:    "on_time",
		}),
	}

	s := BuildInsightSummary(entries, refDate)
	require.False(t, s.IsEmpty())
	require.NotNil(t, s.Window7)
	require.NotNil(t, s.Window30)

	w7 := s.Window7
	assert.Equal(t, 3, w7.EntryCount)
	assert.Equal(t, 0.43, w7.CompletionRate)
	assert.Equal(t, map[string]int{"lt6": 1, "6_7": 0, "7_8": 2, "gt8": 0}, w7.SleepDistribution)
	assert.Equal(t, map[string]int{"lt3k": 0, "3_6k": 0, "6_10k": 0, "gt10k": 0}, w7.StepsDistribution)
	assert.Equal(t, 1, w7.ChillDays)
	assert.Equal(t, models.MedicationAdherence{OnTime: 1, Missed: 1, NA: 1}, w7.Medication)
	assert.Equal(t, 1, w7.MenstrualCounts["period"])

	require.Len(t, w7.SymptomMetrics, 1)
	hm := w7.SymptomMetrics[0]
	assert.Equal(t, MetricHeadache, hm.QuestionID)
	assert.Equal(t, 3.7, hm.Average)
	assert.Equal(t, 5.0, *hm.LatestValue)
	assert.Equal(t, models.TrendRising, hm.Trend)

	w30 := s.Window30
	assert.Equal(t, 4, w30.EntryCount)
	assert.Equal(t, 0.13, w30.CompletionRate)
	assert.Equal(t, 1, w30.SleepDistribution["gt8"])
	assert.Equal(t, 2, w30.Medication.OnTime)
}

func TestBuildInsightSummary_Empty(t *testing.T) {
	s := BuildInsightSummary([]models.DailyEntry{entry(45, nil)}, refDate)
	assert.True(t, s.IsEmpty())
}
