package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/JonnyWalker81/heldairy/backend/internal/analysis"
	"github.com/JonnyWalker81/heldairy/backend/internal/models"
)

const adviceSystemPrompt = `You are a warm, caring health companion who reads the user's daily journal.

Focus on patterns a simple reminder would miss: links between metrics (less activity, worse sleep, lower mood), changes after a stable stretch, and what has worked for this user before.
Prefer advice directions the user rated helpful (score 4 or higher) and avoid ones rated poorly (below 2).
Speak gently and in the first person. Suggest instead of ordering.
Do not diagnose and do not recommend medication. Keep advice about routine, food, warmth, stretching and mood, concrete enough to act on tonight.

Output strict JSON only, no Markdown and no extra text:
{"observations": [...], "actions": [...], "tomorrow_focus": [...], "red_flags": [...]}
observations and actions must each contain at least one item.`

const weeklySystemPrompt = `You write a short weekly insight for a personal health journal. No medical diagnosis and no medication changes.
Use the 7-day and 30-day summaries given. Produce a 2-4 sentence summary, 1-3 highlights, 1-3 suggestions and 0-2 cautions.
Output strict JSON only, no Markdown and no extra text:
{"schema_version": 1, "week_start_date": "YYYY-MM-DD", "week_end_date": "YYYY-MM-DD", "summary": "...", "highlights": [...], "suggestions": [...], "cautions": [...], "confidence": "low|medium|high"}`

// HashPrompt returns the hex SHA-256 of a user prompt
func HashPrompt(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

// localRuleHash is stored as the prompt hash of rule-generated advice
func localRuleHash(ruleID string) string {
	return "local rule: " + ruleID
}

// BuildBasicPrompt renders today's answers and the 7-day overview
func BuildBasicPrompt(entry *models.DailyEntry, summary *models.DailySummaryPayload) string {
	var b strings.Builder
	b.WriteString("Today's answers:\n")
	writeAnswers(&b, entry)
	b.WriteString("\nLast 7 days:\n")

	var week, month *models.SummaryWindow
	if summary != nil {
		week, month = summary.Window7, summary.Window30
	}
	if week == nil || len(week.Metrics) == 0 {
		b.WriteString("Not enough history yet\n")
	} else {
		writeSummaryMetrics(&b, week)
	}
	if month != nil && len(month.Metrics) > 0 {
		fmt.Fprintf(&b, "\nLast 30 days (%d entries):\n", month.EntryCount)
		writeSummaryMetrics(&b, month)
	}

	b.WriteString("\nRespond with the JSON object only.\n")
	return b.String()
}

func writeSummaryMetrics(b *strings.Builder, w *models.SummaryWindow) {
	for _, m := range w.Metrics {
		fmt.Fprintf(b, "- %s: average %s / latest %s, high on %d days, trend %s\n",
			m.QuestionID, formatNumber(m.Average), formatOptional(m.LatestValue), m.HighCount, m.Trend)
	}
}

// BuildEnhancedPrompt renders today's answers with the enhanced weekly
// analysis and, when present, the effectiveness of past advice
func BuildEnhancedPrompt(entry *models.DailyEntry, enhanced *models.EnhancedWeeklySummary, effectiveness *models.EffectivenessSummary) string {
	var b strings.Builder
	b.WriteString("Today's answers:\n")
	writeAnswers(&b, entry)

	fmt.Fprintf(&b, "\n## Last 7 days (%d entries)\n", enhanced.BasicMetrics.EntryCount)
	for _, m := range enhanced.BasicMetrics.Metrics {
		fmt.Fprintf(&b, "- %s: average %s / latest %s, high on %d days\n",
			analysis.DisplayName(m.QuestionID), formatNumber(m.Average), formatOptional(m.LatestValue), m.HighCount)
	}

	if len(enhanced.TrendAnalysis) > 0 {
		b.WriteString("\n## Trends\n")
		for _, t := range enhanced.TrendAnalysis {
			fmt.Fprintf(&b, "- %s: %s (%s%%, %s confidence)\n",
				analysis.DisplayName(t.Metric), t.Description, formatNumber(t.Magnitude), t.Confidence)
		}
	}

	if len(enhanced.Anomalies) > 0 {
		b.WriteString("\n## Unusual days\n")
		for _, a := range enhanced.Anomalies {
			fmt.Fprintf(&b, "- %s %s: %s (usual range %s, %s)\n",
				a.Date, analysis.DisplayName(a.Metric), formatNumber(a.Value), a.ExpectedRange, a.Severity)
		}
	}

	writeList(&b, "Improvements", enhanced.Improvements)
	writeList(&b, "Concerns", enhanced.ConcernPatterns)

	if len(enhanced.WeekOverWeek) > 0 {
		b.WriteString("\n## Week over week\n")
		metrics := make([]string, 0, len(enhanced.WeekOverWeek))
		for metric := range enhanced.WeekOverWeek {
			metrics = append(metrics, metric)
		}
		sort.Strings(metrics)
		for _, metric := range metrics {
			fmt.Fprintf(&b, "- %s: %+.1f%%\n", analysis.DisplayName(metric), enhanced.WeekOverWeek[metric])
		}
	}

	if effectiveness != nil {
		b.WriteString("\n")
		b.WriteString(FormatEffectiveness(effectiveness))
	}

	b.WriteString("\nRespond with the JSON object only.\n")
	return b.String()
}

// FormatEffectiveness renders the effectiveness summary as a prompt section
func FormatEffectiveness(s *models.EffectivenessSummary) string {
	if s == nil || s.ExecutedCount == 0 {
		return "## Past advice\nNo executed advice yet\n"
	}

	var b strings.Builder
	b.WriteString("## Past advice\n")
	fmt.Fprintf(&b, "- Executed: %d\n", s.ExecutedCount)
	if s.AverageScore != nil {
		fmt.Fprintf(&b, "- Average effectiveness: %.1f/5\n", *s.AverageScore)
	}
	b.WriteString("- By category:\n")
	for _, c := range s.Categories {
		if c.AverageScore == nil {
			fmt.Fprintf(&b, "  * %s: not rated\n", c.Category)
			continue
		}
		fmt.Fprintf(&b, "  * %s: average %.1f\n", c.Category, *c.AverageScore)
	}
	if len(s.TopRated) > 0 {
		b.WriteString("Highly rated examples:\n")
		for _, item := range s.TopRated {
			fmt.Fprintf(&b, "- %s (%d)\n", item.AdviceText, *item.EffectivenessScore)
		}
	}
	return b.String()
}

// BuildWeeklyPrompt renders the week range and local weekly statistics
func BuildWeeklyPrompt(week models.WeekRange, summary models.InsightLocalSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Week: %s to %s\n", week.StartDate(), week.EndDate())

	if w := summary.Window7; w != nil {
		fmt.Fprintf(&b, "Last 7 days: %d/%d days recorded, completion %s\n", w.EntryCount, w.Days, formatNumber(w.CompletionRate))
		fmt.Fprintf(&b, "Sleep: %v\n", w.SleepDistribution)
		fmt.Fprintf(&b, "Nap: %v\n", w.NapDistribution)
		fmt.Fprintf(&b, "Steps: %v\n", w.StepsDistribution)
		fmt.Fprintf(&b, "Days feeling cold: %d\n", w.ChillDays)
		fmt.Fprintf(&b, "Medication: on time %d, missed %d, none %d\n", w.Medication.OnTime, w.Medication.Missed, w.Medication.NA)
		fmt.Fprintf(&b, "Menstrual: %v\n", w.MenstrualCounts)
		if len(w.SymptomMetrics) > 0 {
			fmt.Fprintf(&b, "Symptoms: %s\n", symptomLine(w.SymptomMetrics))
		}
	}
	if w := summary.Window30; w != nil {
		fmt.Fprintf(&b, "Last 30 days: %d/%d days recorded, completion %s\n", w.EntryCount, w.Days, formatNumber(w.CompletionRate))
		if len(w.SymptomMetrics) > 0 {
			fmt.Fprintf(&b, "30-day symptoms: %s\n", symptomLine(w.SymptomMetrics))
		}
	}

	b.WriteString("Use a gentle, reasonable tone and avoid diagnosis or medication advice. Return JSON only.\n")
	return b.String()
}

func writeAnswers(b *strings.Builder, entry *models.DailyEntry) {
	responses := append([]models.Response(nil), entry.Responses...)
	sort.SliceStable(responses, func(i, j int) bool {
		return responses[i].QuestionOrder < responses[j].QuestionOrder
	})
	for _, r := range responses {
		answer := r.AnswerLabel
		if answer == "" {
			answer = r.AnswerValue
		}
		fmt.Fprintf(b, "- %s: %s\n", r.QuestionID, answer)
	}
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

func symptomLine(metrics []models.InsightSymptomMetric) string {
	parts := make([]string, 0, len(metrics))
	for _, m := range metrics {
		parts = append(parts, fmt.Sprintf("%s=%s (%s)", m.QuestionID, formatNumber(m.Average), m.Trend))
	}
	return strings.Join(parts, ", ")
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatNumber(*v)
}
