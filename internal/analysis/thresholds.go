package analysis

// Empirical thresholds used by the trend, anomaly and summary calculations.
// They are tuned by observation, not derived statistically.
const (
	// Minimum absolute change between the latest value and the rest for a simple trend
	SimpleTrendDelta = 1.0

	// Minimum absolute change between early and late sub-samples for a detailed trend
	DetailedTrendDelta = 1.0

	// Upper bound on the size of each sub-sample compared by a detailed trend
	TrendSampleSize = 3

	// Share of same-sign consecutive differences that makes a trend consistent
	ConsistentTrendRatio = 0.7

	// Points required for high / medium detailed-trend confidence
	HighConfidenceMinPoints   = 5
	MediumConfidenceMinPoints = 3

	// Percent change wording thresholds for trend descriptions
	SignificantChangePct = 30.0
	NoticeableChangePct  = 15.0

	// Anomaly detection
	AnomalyMinPoints = 3
	AnomalyMinStdDev = 0.1
	SevereZScore     = 3.0
	ModerateZScore   = 2.0
	MildZScore       = 1.5

	// High-value thresholds for symptom counts
	DailyHighThreshold    = 6.0
	EnhancedHighThreshold = 7.0

	// Enhanced weekly analysis
	EnhancedMinEntries     = 3
	WeekOverWeekMinEntries = 3
	ConcernMagnitudePct    = 15.0
	MaxSevereConcerns      = 2
)

// Window lengths in days
const (
	ShortWindowDays = 7
	LongWindowDays  = 30
)
