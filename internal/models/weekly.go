package models

import (
	"strings"
	"time"
)

// InsightSymptomMetric is a symptom aggregate inside an InsightWindow
type InsightSymptomMetric struct {
	QuestionID  string    `json:"question_id"`
	Average     float64   `json:"average"`
	LatestValue *float64  `json:"latest"`
	Trend       TrendFlag `json:"trend"`
}

// MedicationAdherence counts medication answers inside a window
type MedicationAdherence struct {
	OnTime int `json:"on_time"`
	Missed int `json:"missed"`
	NA     int `json:"na"`
}

// InsightWindow is the local weekly-insight statistics over a date range
type InsightWindow struct {
	Days              int                    `json:"days"`
	EntryCount        int                    `json:"entries"`
	CompletionRate    float64                `json:"completion_rate"`
	SleepDistribution map[string]int         `json:"sleep_distribution"`
	NapDistribution   map[string]int         `json:"nap_distribution"`
	StepsDistribution map[string]int         `json:"steps_distribution"`
	SymptomMetrics    []InsightSymptomMetric `json:"symptom_metrics"`
	ChillDays         int                    `json:"chill_days"`
	Medication        MedicationAdherence    `json:"medication"`
	MenstrualCounts   map[string]int         `json:"menstrual_counts"`
}

// InsightLocalSummary holds the 7 and 30 day insight windows; nil means no entries in range
type InsightLocalSummary struct {
	Window7  *InsightWindow `json:"window_7"`
	Window30 *InsightWindow `json:"window_30"`
}

// IsEmpty reports whether neither window has any entries
func (s InsightLocalSummary) IsEmpty() bool {
	return s.Window7 == nil && s.Window30 == nil
}

// Weekly insight confidence values accepted by validation
var weeklyConfidences = map[string]struct{}{
	"low":    {},
	"medium": {},
	"high":   {},
}

// WeeklyInsightPayload is the AI-generated weekly insight
type WeeklyInsightPayload struct {
	SchemaVersion int      `json:"schema_version"`
	WeekStartDate string   `json:"week_start_date"`
	WeekEndDate   string   `json:"week_end_date"`
	Summary       string   `json:"summary"`
	Highlights    []string `json:"highlights"`
	Suggestions   []string `json:"suggestions"`
	Cautions      []string `json:"cautions"`
	Confidence    string   `json:"confidence"`
}

// Normalized trims every field, drops blank list items and defaults confidence to "medium"
func (p WeeklyInsightPayload) Normalized() WeeklyInsightPayload {
	confidence := strings.TrimSpace(p.Confidence)
	if confidence == "" {
		confidence = "medium"
	}
	version := p.SchemaVersion
	if version == 0 {
		version = 1
	}
	return WeeklyInsightPayload{
		SchemaVersion: version,
		WeekStartDate: strings.TrimSpace(p.WeekStartDate),
		WeekEndDate:   strings.TrimSpace(p.WeekEndDate),
		Summary:       strings.TrimSpace(p.Summary),
		Highlights:    trimNonBlank(p.Highlights),
		Suggestions:   trimNonBlank(p.Suggestions),
		Cautions:      trimNonBlank(p.Cautions),
		Confidence:    confidence,
	}
}

// ValidationErrors reports tokens such as "summary_empty" or "confidence_invalid"
func (p WeeklyInsightPayload) ValidationErrors() []string {
	var issues []string
	if strings.TrimSpace(p.Summary) == "" {
		issues = append(issues, "summary_empty")
	}
	if len(p.Highlights) == 0 {
		issues = append(issues, "highlights_empty")
	}
	if len(p.Suggestions) == 0 {
		issues = append(issues, "suggestions_empty")
	}
	if strings.TrimSpace(p.WeekStartDate) == "" || strings.TrimSpace(p.WeekEndDate) == "" {
		issues = append(issues, "week_range_missing")
	}
	if _, ok := weeklyConfidences[p.Confidence]; !ok {
		issues = append(issues, "confidence_invalid")
	}
	return issues
}

// InsightStatus is the persisted outcome of a weekly generation
type InsightStatus string

const (
	InsightStatusSuccess InsightStatus = "success"
	InsightStatusFailed  InsightStatus = "failed"
)

// WeeklyInsightRecord is the cached weekly insight, unique per (user_id, week_start_date).
// A second generation for the same week overwrites the record.
type WeeklyInsightRecord struct {
	UserID        string                `json:"user_id"`
	WeekStartDate string                `json:"week_start_date"`
	WeekEndDate   string                `json:"week_end_date"`
	GeneratedAt   time.Time             `json:"generated_at"`
	Window7       *InsightWindow        `json:"window_7,omitempty"`
	Window30      *InsightWindow        `json:"window_30,omitempty"`
	AIResult      *WeeklyInsightPayload `json:"ai_result,omitempty"`
	Status        InsightStatus         `json:"status"`
	ErrorMessage  *string               `json:"error_message,omitempty"`
}

// WeekRange is an inclusive Monday..Sunday range of calendar dates
type WeekRange struct {
	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
}

// StartDate renders the range start as YYYY-MM-DD
func (r WeekRange) StartDate() string { return FormatDate(r.Start) }

// EndDate renders the range end as YYYY-MM-DD
func (r WeekRange) EndDate() string { return FormatDate(r.End) }

// IsBoundaryDay reports whether day is the last day of the range
func (r WeekRange) IsBoundaryDay(day time.Time) bool {
	return DateOf(day).Equal(DateOf(r.End))
}

// WeekRangeFor picks the week a weekly insight covers for the given day.
// On Sunday, the last day of the week, it is the current week; on any other
// day it is the most recently completed Monday..Sunday week.
func WeekRangeFor(today time.Time) WeekRange {
	day := DateOf(today)
	end := day
	if day.Weekday() != time.Sunday {
		end = day.AddDate(0, 0, -int(day.Weekday()))
	}
	return WeekRange{Start: end.AddDate(0, 0, -6), End: end}
}

// WeeklyInsightStatus is the state reported to callers of the weekly insight flow
type WeeklyInsightStatus string

const (
	WeeklyStatusNoData   WeeklyInsightStatus = "no_data"
	WeeklyStatusDisabled WeeklyInsightStatus = "disabled"
	WeeklyStatusPending  WeeklyInsightStatus = "pending"
	WeeklyStatusSuccess  WeeklyInsightStatus = "success"
	WeeklyStatusError    WeeklyInsightStatus = "error"
)

// WeeklyInsightResult is the outcome of one weekly insight request
type WeeklyInsightResult struct {
	Status        WeeklyInsightStatus   `json:"status"`
	Payload       *WeeklyInsightPayload `json:"payload,omitempty"`
	GeneratedAt   *time.Time            `json:"generated_at,omitempty"`
	WeekStartDate string                `json:"week_start_date"`
	WeekEndDate   string                `json:"week_end_date"`
	Message       string                `json:"message,omitempty"`
	Cached        bool                  `json:"cached"`
}

func trimNonBlank(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
