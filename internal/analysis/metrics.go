package analysis

// Question ids of the numeric metrics tracked by the summaries
const (
	MetricHeadache     = "headache_intensity"
	MetricNeckBack     = "neck_back_intensity"
	MetricStomach      = "stomach_intensity"
	MetricNasal        = "nasal_intensity"
	MetricKnee         = "knee_intensity"
	MetricIrritability = "mood_irritability"
	MetricMoodScale    = "mood_scale"
	MetricEnergy       = "energy_level"

	MetricExerciseMinutes = "exercise_duration"
)

// Question ids of the categorical answers used by the insight summary
const (
	QuestionSleepDuration   = "sleep_duration"
	QuestionNapDuration     = "nap_duration"
	QuestionDailySteps      = "daily_steps"
	QuestionChillExposure   = "chill_exposure"
	QuestionMedication      = "medication_adherence"
	QuestionMenstrualStatus = "menstrual_status"
)

var symptomMetrics = []string{
	MetricHeadache,
	MetricNeckBack,
	MetricStomach,
	MetricNasal,
	MetricKnee,
	MetricIrritability,
}

// dailyMetrics adds activity answers to the symptoms; only symptoms count
// toward HighCount
var dailyMetrics = append(append([]string(nil), symptomMetrics...), MetricExerciseMinutes)

var enhancedMetrics = append(append([]string(nil), symptomMetrics...), MetricMoodScale, MetricEnergy)

// Higher is worse for these metrics
var inverseMetrics = map[string]struct{}{
	MetricHeadache:     {},
	MetricNeckBack:     {},
	MetricStomach:      {},
	MetricNasal:        {},
	MetricKnee:         {},
	MetricIrritability: {},
}

var metricNames = map[string]string{
	MetricHeadache:     "Headache",
	MetricNeckBack:     "Neck/back pain",
	MetricStomach:      "Stomach discomfort",
	MetricNasal:        "Nasal congestion",
	MetricKnee:         "Knee pain",
	MetricIrritability: "Irritability",
	MetricMoodScale:    "Mood",
	MetricEnergy:       "Energy",

	MetricExerciseMinutes: "Exercise minutes",
}

// SymptomMetrics returns the symptom question ids in display order
func SymptomMetrics() []string {
	return append([]string(nil), symptomMetrics...)
}

// EnhancedMetrics returns the metrics analysed by the enhanced weekly summary
func EnhancedMetrics() []string {
	return append([]string(nil), enhancedMetrics...)
}

// IsInverse reports whether a rising value means worse health
func IsInverse(metric string) bool {
	_, ok := inverseMetrics[metric]
	return ok
}

// DisplayName returns a human readable name, falling back to the id
func DisplayName(metric string) string {
	if name, ok := metricNames[metric]; ok {
		return name
	}
	return metric
}
