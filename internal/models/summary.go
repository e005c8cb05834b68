package models

import "time"

// TrendFlag is the qualitative direction produced by the simple trend classifier
type TrendFlag string

const (
	TrendRising  TrendFlag = "rising"
	TrendFalling TrendFlag = "falling"
	TrendStable  TrendFlag = "stable"
)

// SummaryMetric is the per-question aggregate inside a SummaryWindow
type SummaryMetric struct {
	QuestionID  string    `json:"question_id"`
	Average     float64   `json:"average"`
	LatestValue *float64  `json:"latest"`
	HighCount   int       `json:"high_count"`
	Trend       TrendFlag `json:"trend"`
}

// SummaryWindow aggregates tracked metrics over a trailing window of entries.
// It is rebuilt on every request and never mutated.
type SummaryWindow struct {
	Days       int             `json:"days"`
	EntryCount int             `json:"entries"`
	Metrics    []SummaryMetric `json:"metrics"`
}

// Metric returns the summary for a question id, or nil if the window has none
func (w *SummaryWindow) Metric(questionID string) *SummaryMetric {
	if w == nil {
		return nil
	}
	for i := range w.Metrics {
		if w.Metrics[i].QuestionID == questionID {
			return &w.Metrics[i]
		}
	}
	return nil
}

// DailySummaryPayload holds the 7 and 30 day windows. A nil window means
// there was not enough data, which is distinct from a window with zero highs.
type DailySummaryPayload struct {
	Window7  *SummaryWindow `json:"window_7"`
	Window30 *SummaryWindow `json:"window_30"`
}

// SummaryRecord is the persisted daily summary for one entry
type SummaryRecord struct {
	UserID     string         `json:"user_id"`
	EntryID    string         `json:"entry_id"`
	EntryDate  string         `json:"entry_date"`
	Window7    *SummaryWindow `json:"window_7,omitempty"`
	Window30   *SummaryWindow `json:"window_30,omitempty"`
	ComputedAt time.Time      `json:"computed_at"`
}

// Payload returns the windows of the record as a summary payload
func (r *SummaryRecord) Payload() DailySummaryPayload {
	return DailySummaryPayload{Window7: r.Window7, Window30: r.Window30}
}
