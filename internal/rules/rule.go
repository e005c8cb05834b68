package rules

import (
	"errors"
	"fmt"
	"sort"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
)

// Condition decides whether a rule applies to today's answers. week is the
// current 7 day summary and may be nil. Conditions must be pure.
type Condition func(answers Answers, week *models.SummaryWindow) bool

// Rule is one deterministic advice rule
type Rule struct {
	ID       string
	Category string
	Priority int
	When     Condition
	Advice   models.AdvicePayload
}

// RuleSet is an immutable list of rules ordered by priority, highest first.
// Rules of equal priority keep their declaration order.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet validates and orders rules. Rule ids must be unique and every
// rule needs a condition.
func NewRuleSet(rules ...Rule) (*RuleSet, error) {
	seen := make(map[string]struct{}, len(rules))
	ordered := make([]Rule, 0, len(rules))
	for i, r := range rules {
		if r.ID == "" {
			return nil, fmt.Errorf("rule %d: id is required", i)
		}
		if r.When == nil {
			return nil, fmt.Errorf("rule %s: condition is required", r.ID)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("rule %s: duplicate id", r.ID)
		}
		seen[r.ID] = struct{}{}

		r.Advice = r.Advice.Clone()
		ordered = append(ordered, r)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})
	return &RuleSet{rules: ordered}, nil
}

// MustRuleSet is NewRuleSet that panics on invalid rules, for static tables
func MustRuleSet(rules ...Rule) *RuleSet {
	set, err := NewRuleSet(rules...)
	if err != nil {
		panic(err)
	}
	return set
}

// ErrEmptyRuleSet is returned by Validate when a rule set has no rules
var ErrEmptyRuleSet = errors.New("rule set is empty")

// Validate reports whether the set can be used by an engine
func (s *RuleSet) Validate() error {
	if s == nil || len(s.rules) == 0 {
		return ErrEmptyRuleSet
	}
	return nil
}

// Len returns the number of rules
func (s *RuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// IDs returns rule ids in evaluation order
func (s *RuleSet) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, len(s.rules))
	for i, r := range s.rules {
		ids[i] = r.ID
	}
	return ids
}
