package deepseek

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAdvice_CoercesItems(t *testing.T) {
	content := "```json\n" + `{
		"observations": ["slept well", "", 7, {"category": "sleep", "description": "regular bedtime"}],
		"actions": {"suggestion": "walk after dinner"},
		"tomorrow_focus": "note your mood",
		"red_flags": [{"title": "chest pain"}, {"weird": 1}, null, [{"text": "nested"}]]
	}` + "\n```"

	p, _, err := parseAdvicePayload(content)
	require.NoError(t, err)

	assert.Equal(t, []string{"slept well", "7", "sleep：regular bedtime"}, p.Observations)
	assert.Equal(t, []string{"walk after dinner"}, p.Actions)
	assert.Equal(t, []string{"note your mood"}, p.TomorrowFocus)
	assert.Equal(t, []string{"chest pain", `{"weird":1}`, "nested"}, p.RedFlags)
}

func TestParseAdvice_Errors(t *testing.T) {
	for _, content := range []string{
		"no json here",
		`["an", "array"]`,
		`{"observations": [1, 2,}`,
	} {
		_, _, err := parseAdvicePayload(content)
		require.Error(t, err, content)
		assert.True(t, IsFormatError(err), "expected a format error for %q", content)
	}
}

func TestParseAdvice_EmptyListsAreNotAnError(t *testing.T) {
	p, _, err := parseAdvicePayload(`{"observations": [], "actions": []}`)
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
}

func TestParseWeeklyInsight(t *testing.T) {
	p, block, err := parseWeeklyInsightPayload(`Sure! {
		"week_start_date": "2026-10-12",
		"week_end_date": "2026-10-18",
		"summary": "A calmer week.",
		"highlights": ["fewer headaches"],
		"suggestions": ["keep the evening walks"],
		"cautions": []
	}`)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(block, "{"), "prose before the object is dropped")
	assert.Equal(t, 1, p.SchemaVersion)
	assert.Equal(t, "", p.Confidence)
	assert.Equal(t, "2026-10-12", p.WeekStartDate)
	assert.Equal(t, []string{"fewer headaches"}, p.Highlights)

	p, _, err = parseWeeklyInsightPayload(`{"schema_version": 2, "confidence": "high"}`)
	require.NoError(t, err)
	assert.Equal(t, 2, p.SchemaVersion)
	assert.Equal(t, "high", p.Confidence)
}

func TestDescribeStructure(t *testing.T) {
	assert.Equal(t, "{actions=array.size=2, meta=object.keys=1, note=string}",
		describeStructure(`{"note": "secret text", "actions": [1, 2], "meta": {"a": 1}}`))
	assert.Equal(t, "array[size=3]", describeStructure(`[1,2,3]`))
}
