package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
)

func always(Answers, *models.SummaryWindow) bool { return true }
func never(Answers, *models.SummaryWindow) bool  { return false }

func advice(text string) models.AdvicePayload {
	return models.AdvicePayload{Observations: []string{text}}
}

func entryWith(answers map[string]string) *models.DailyEntry {
	e := &models.DailyEntry{ID: "e1", EntryDate: "2026-10-18"}
	for qid, v := range answers {
		e.Responses = append(e.Responses, models.Response{QuestionID: qid, AnswerValue: v})
	}
	return e
}

func requireGenerated(t *testing.T, r Result) Generated {
	t.Helper()
	g, ok := r.(Generated)
	require.True(t, ok, "expected Generated, got %T", r)
	return g
}

func TestEngine_HigherPriorityWins(t *testing.T) {
	set, err := NewRuleSet(
		Rule{ID: "low", Priority: 1, When: always, Advice: advice("low")},
		Rule{ID: "high", Priority: 9, When: always, Advice: advice("high")},
	)
	require.NoError(t, err)

	g := requireGenerated(t, NewEngine(set).EvaluateAnswers(Answers{}, nil))
	assert.Equal(t, "high", g.RuleID)
	assert.Equal(t, models.AdviceSourceLocal, g.Payload.Source)
}

func TestEngine_EqualPriorityKeepsDeclarationOrder(t *testing.T) {
	set, err := NewRuleSet(
		Rule{ID: "skipped", Priority: 5, When: never},
		Rule{ID: "first", Priority: 5, When: always, Advice: advice("first")},
		Rule{ID: "second", Priority: 5, When: always, Advice: advice("second")},
	)
	require.NoError(t, err)

	g := requireGenerated(t, NewEngine(set).EvaluateAnswers(Answers{}, nil))
	assert.Equal(t, "first", g.RuleID)
	assert.Equal(t, []string{"skipped", "first", "second"}, set.IDs())
}

func TestEngine_NoMatch(t *testing.T) {
	set := MustRuleSet(Rule{ID: "never", When: never})

	_, ok := NewEngine(set).EvaluateAnswers(Answers{}, nil).(NoMatch)
	assert.True(t, ok)

	_, ok = NewEngine(nil).Evaluate(entryWith(nil), nil).(NoMatch)
	assert.True(t, ok, "a nil rule set never matches")
}

func TestEngine_PayloadIsACopy(t *testing.T) {
	set := MustRuleSet(Rule{ID: "r", When: always, Advice: advice("original")})
	engine := NewEngine(set)

	g := requireGenerated(t, engine.EvaluateAnswers(Answers{}, nil))
	g.Payload.Observations[0] = "mutated"

	again := requireGenerated(t, engine.EvaluateAnswers(Answers{}, nil))
	assert.Equal(t, "original", again.Payload.Observations[0])
}

func TestNewRuleSet_Invalid(t *testing.T) {
	_, err := NewRuleSet(Rule{ID: "", When: always})
	assert.Error(t, err)

	_, err = NewRuleSet(Rule{ID: "no-condition"})
	assert.Error(t, err)

	_, err = NewRuleSet(Rule{ID: "a", When: always}, Rule{ID: "a", When: always})
	assert.Error(t, err)

	var empty *RuleSet
	assert.ErrorIs(t, empty.Validate(), ErrEmptyRuleSet)
}

func TestAnswersFrom_FirstResponseWins(t *testing.T) {
	e := &models.DailyEntry{Responses: []models.Response{
		{QuestionID: "sleep_duration", AnswerValue: "4"},
		{QuestionID: "sleep_duration", AnswerValue: "8"},
	}}

	a := AnswersFrom(e)
	v, ok := a.Number("sleep_duration")
	require.True(t, ok)
	assert.Equal(t, 4.0, v)
	assert.Equal(t, 7.0, a.NumberOr("missing", 7))
	assert.Equal(t, 3.0, Answers{"meal_count": "a few"}.NumberOr("meal_count", 3))
}
