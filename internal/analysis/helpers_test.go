package analysis

import (
	"strconv"
	"time"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
)

var refDate = time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

// entry builds a daily entry dated daysAgo days before refDate
func entry(daysAgo int, answers map[string]string) models.DailyEntry {
	date := models.FormatDate(refDate.AddDate(0, 0, -daysAgo))
	e := models.DailyEntry{ID: "entry-" + date, UserID: "user-1", EntryDate: date}
	order := 0
	for qid, v := range answers {
		order++
		e.Responses = append(e.Responses, models.Response{QuestionID: qid, QuestionOrder: order, AnswerValue: v})
	}
	return e
}

// numericDays builds one entry per value for a metric, oldest first, ending at refDate
func numericDays(metric string, values ...float64) []models.DailyEntry {
	out := make([]models.DailyEntry, len(values))
	for i, v := range values {
		out[i] = entry(len(values)-1-i, map[string]string{metric: strconv.FormatFloat(v, 'f', -1, 64)})
	}
	return out
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
