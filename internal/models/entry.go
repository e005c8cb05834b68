package models

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for entry and week dates
const DateLayout = "2006-01-02"

// Response is a single answered question inside a daily entry
type Response struct {
	QuestionID    string    `json:"question_id" binding:"required"`
	QuestionOrder int       `json:"question_order"`
	AnswerType    string    `json:"answer_type"`
	AnswerValue   string    `json:"answer_value"`
	AnswerLabel   string    `json:"answer_label"`
	AnsweredAt    time.Time `json:"answered_at"`
}

// DailyEntry is one user's answers for one calendar date.
// Entries are unique per (user_id, entry_date); saving an entry for a date
// that already has one replaces it.
type DailyEntry struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	EntryDate  string     `json:"entry_date"`
	TimezoneID string     `json:"timezone_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	Responses  []Response `json:"responses"`
}

// Date parses EntryDate as a calendar date in UTC
func (e *DailyEntry) Date() (time.Time, error) {
	return ParseDate(e.EntryDate)
}

// Answer returns the raw answer value for a question. When a question was
// answered more than once the first response wins.
func (e *DailyEntry) Answer(questionID string) (string, bool) {
	for _, r := range e.Responses {
		if r.QuestionID == questionID {
			return r.AnswerValue, true
		}
	}
	return "", false
}

// NumericAnswer returns the answer for a question parsed as a number.
// Non-numeric answers are reported as absent.
func (e *DailyEntry) NumericAnswer(questionID string) (float64, bool) {
	raw, ok := e.Answer(questionID)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// UpsertEntryRequest is the body of PUT /entries
type UpsertEntryRequest struct {
	ID         string     `json:"id"`
	EntryDate  string     `json:"entry_date" binding:"required"`
	TimezoneID string     `json:"timezone_id"`
	Responses  []Response `json:"responses" binding:"required,dive"`
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// FormatDate renders a time as a YYYY-MM-DD calendar date
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateOf truncates t to its calendar date in t's own location, returned as UTC midnight
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
