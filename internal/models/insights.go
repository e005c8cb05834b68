package models

// Confidence represents how much a detailed trend can be trusted
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Direction is the polarity-aware health direction of a detailed trend.
// For inverse metrics (pain, irritability) a rising value is Declining.
type Direction string

const (
	DirectionImproving Direction = "improving"
	DirectionStable    Direction = "stable"
	DirectionDeclining Direction = "declining"
)

// Severity classifies how far an anomalous value sits from its window mean
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Rank orders severities so that severe sorts first
func (s Severity) Rank() int {
	switch s {
	case SeveritySevere:
		return 3
	case SeverityModerate:
		return 2
	case SeverityMild:
		return 1
	default:
		return 0
	}
}

// DetailedTrend is the enhanced trend of one metric over a window.
// Magnitude is the absolute percent change between the early and late sub-samples.
type DetailedTrend struct {
	Direction   Direction  `json:"direction"`
	Magnitude   float64    `json:"magnitude"`
	Confidence  Confidence `json:"confidence"`
	Description string     `json:"description"`
}

// MetricTrend pairs a metric id with its detailed trend, keeping tracked-metric order
type MetricTrend struct {
	Metric string `json:"metric"`
	DetailedTrend
}

// AnomalyEvent marks a single data point statistically distant from its window mean
type AnomalyEvent struct {
	Date          string   `json:"date"`
	Metric        string   `json:"metric"`
	Value         float64  `json:"value"`
	ExpectedRange string   `json:"expected_range"`
	Severity      Severity `json:"severity"`
	Description   string   `json:"description"`
}

// EnhancedWeeklySummary is the deeper 7-day analysis used to build the enhanced advice prompt
type EnhancedWeeklySummary struct {
	BasicMetrics    SummaryWindow      `json:"basic_metrics"`
	TrendAnalysis   []MetricTrend      `json:"trend_analysis"`
	Anomalies       []AnomalyEvent     `json:"anomalies"`
	Improvements    []string           `json:"improvements"`
	ConcernPatterns []string           `json:"concern_patterns"`
	WeekOverWeek    map[string]float64 `json:"week_over_week,omitempty"`
}

// Trend returns the detailed trend of a metric, if one was computed
func (s *EnhancedWeeklySummary) Trend(metric string) (DetailedTrend, bool) {
	for _, t := range s.TrendAnalysis {
		if t.Metric == metric {
			return t.DetailedTrend, true
		}
	}
	return DetailedTrend{}, false
}
