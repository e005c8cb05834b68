package rules

import (
	"strconv"
	"strings"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
)

// Answers maps question ids to today's raw answer values. It is built once
// per evaluation; when a question was answered twice the first response wins.
type Answers map[string]string

// AnswersFrom indexes the responses of an entry
func AnswersFrom(entry *models.DailyEntry) Answers {
	if entry == nil {
		return Answers{}
	}
	a := make(Answers, len(entry.Responses))
	for _, r := range entry.Responses {
		if _, seen := a[r.QuestionID]; !seen {
			a[r.QuestionID] = r.AnswerValue
		}
	}
	return a
}

// Number returns the answer parsed as a number
func (a Answers) Number(questionID string) (float64, bool) {
	raw, ok := a[questionID]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// NumberOr returns the numeric answer, or def when it is missing or not a number
func (a Answers) NumberOr(questionID string, def float64) float64 {
	if v, ok := a.Number(questionID); ok {
		return v
	}
	return def
}
