package rules

import "github.com/JonnyWalker81/heldairy/backend/internal/models"

// Result is the outcome of a rule evaluation: Generated or NoMatch
type Result interface {
	isResult()
}

// Generated carries the advice of the matched rule
type Generated struct {
	Payload models.AdvicePayload
	RuleID  string
}

// NoMatch means no rule applied and the caller should fall through to AI advice
type NoMatch struct{}

func (Generated) isResult() {}
func (NoMatch) isResult()   {}

// Engine evaluates a rule set against a day's answers
type Engine struct {
	rules *RuleSet
}

// NewEngine creates an engine over rules. A nil set never matches.
func NewEngine(rules *RuleSet) *Engine {
	return &Engine{rules: rules}
}

// Evaluate returns the advice of the highest priority rule whose condition
// holds for the entry, or NoMatch.
func (e *Engine) Evaluate(entry *models.DailyEntry, week *models.SummaryWindow) Result {
	return e.EvaluateAnswers(AnswersFrom(entry), week)
}

// EvaluateAnswers is Evaluate over an already built answer map
func (e *Engine) EvaluateAnswers(answers Answers, week *models.SummaryWindow) Result {
	if e.rules == nil {
		return NoMatch{}
	}
	for _, r := range e.rules.rules {
		if !r.When(answers, week) {
			continue
		}
		payload := r.Advice.Clone()
		payload.Source = models.AdviceSourceLocal
		return Generated{Payload: payload, RuleID: r.ID}
	}
	return NoMatch{}
}
