package models

import (
	"fmt"
	"strings"
	"time"
)

// AdviceSource records which path produced an advice payload
type AdviceSource string

const (
	AdviceSourceLocal    AdviceSource = "local"
	AdviceSourceAI       AdviceSource = "ai"
	AdviceSourceFallback AdviceSource = "fallback"
)

// List caps applied by Normalized
const (
	MaxObservations  = 3
	MaxActions       = 3
	MaxTomorrowFocus = 2
	MaxRedFlags      = 3
)

// Validation tokens reported by AdvicePayload.ValidationErrors
const (
	IssueContentEmpty = "content_empty"
)

const (
	redFlagPrefix = "If "
	redFlagSuffix = "seek medical care"

	redFlagTrailing = ".。!！,，;； "
)

var (
	redFlagPrefixes = []string{"If ", "if ", "Should ", "如出现", "若出现"}
	redFlagSuffixes = []string{redFlagSuffix, "请就医"}
)

// Fallback content used when generation yields nothing usable
const (
	FallbackObservation = "Today's record is light, so start with the basics: a steady routine and enough water."
	FallbackAction      = "Keep regular meals and 30-60 minutes of light activity, and seek medical care if you feel clearly unwell."
	FallbackRedFlag     = "If persistent fever, chest pain or a severe headache occurs, seek medical care"
)

// AdvicePayload is the structured daily advice. The wire shape uses snake_case keys.
type AdvicePayload struct {
	Observations  []string     `json:"observations"`
	Actions       []string     `json:"actions"`
	TomorrowFocus []string     `json:"tomorrow_focus"`
	RedFlags      []string     `json:"red_flags"`
	Source        AdviceSource `json:"source,omitempty"`
}

// Normalized returns a copy with blank and duplicate strings removed, lists
// capped, and every red flag framed as "If ..., seek medical care".
// Normalized is idempotent.
func (p AdvicePayload) Normalized() AdvicePayload {
	framed := make([]string, 0, len(p.RedFlags))
	for _, raw := range p.RedFlags {
		s := strings.TrimSpace(raw)
		if strings.Trim(s, redFlagTrailing) == "" {
			continue
		}
		framed = append(framed, frameRedFlag(s))
	}
	flags := cleanupList(framed, MaxRedFlags)

	return AdvicePayload{
		Observations:  cleanupList(p.Observations, MaxObservations),
		Actions:       cleanupList(p.Actions, MaxActions),
		TomorrowFocus: cleanupList(p.TomorrowFocus, MaxTomorrowFocus),
		RedFlags:      flags,
		Source:        p.Source,
	}
}

// ValidationErrors reports machine-readable issues such as "content_empty"
// or "observations_too_many=4". An empty result means the payload is valid.
func (p AdvicePayload) ValidationErrors() []string {
	var issues []string
	if len(p.Observations)+len(p.Actions) == 0 {
		issues = append(issues, IssueContentEmpty)
	}
	if n := len(p.Observations); n > MaxObservations {
		issues = append(issues, fmt.Sprintf("observations_too_many=%d", n))
	}
	if n := len(p.Actions); n > MaxActions {
		issues = append(issues, fmt.Sprintf("actions_too_many=%d", n))
	}
	if n := len(p.TomorrowFocus); n > MaxTomorrowFocus {
		issues = append(issues, fmt.Sprintf("focus_too_many=%d", n))
	}
	return issues
}

// IsEmpty reports whether the payload has neither observations nor actions
func (p AdvicePayload) IsEmpty() bool {
	return len(p.Observations) == 0 && len(p.Actions) == 0
}

// WithFallbackIfEmpty returns the fixed safe payload when p has no
// observations and no actions, and nil otherwise.
func (p AdvicePayload) WithFallbackIfEmpty() *AdvicePayload {
	if !p.IsEmpty() {
		return nil
	}
	fallback := AdvicePayload{
		Observations:  []string{FallbackObservation},
		Actions:       []string{FallbackAction},
		TomorrowFocus: append([]string(nil), p.TomorrowFocus...),
		RedFlags:      []string{FallbackRedFlag},
		Source:        AdviceSourceFallback,
	}
	return &fallback
}

// Clone returns a deep copy so templates can be handed out safely
func (p AdvicePayload) Clone() AdvicePayload {
	return AdvicePayload{
		Observations:  append([]string(nil), p.Observations...),
		Actions:       append([]string(nil), p.Actions...),
		TomorrowFocus: append([]string(nil), p.TomorrowFocus...),
		RedFlags:      append([]string(nil), p.RedFlags...),
		Source:        p.Source,
	}
}

// AdviceRecord is the persisted advice for one entry. There is at most one
// record per (user_id, entry_id); regenerating replaces it.
type AdviceRecord struct {
	UserID      string        `json:"user_id"`
	EntryID     string        `json:"entry_id"`
	EntryDate   string        `json:"entry_date"`
	Model       string        `json:"model"`
	Advice      AdvicePayload `json:"advice"`
	PromptHash  string        `json:"prompt_hash"`
	RuleID      string        `json:"rule_id,omitempty"`
	GeneratedAt time.Time     `json:"generated_at"`
}

func cleanupList(items []string, limit int) []string {
	out := make([]string, 0, min(len(items), limit))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if len(out) == limit {
			break
		}
		s := strings.TrimSpace(item)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func frameRedFlag(raw string) string {
	framed := raw
	if !hasAnyPrefix(framed, redFlagPrefixes) {
		framed = redFlagPrefix + framed
	}
	trimmed := strings.TrimRight(framed, redFlagTrailing)
	if hasAnySuffix(trimmed, redFlagSuffixes) {
		return strings.TrimSpace(framed)
	}
	return trimmed + ", " + redFlagSuffix
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}
