package deepseek

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
)

// Keys tried, in order, when a list item is an object without a description
var itemTextKeys = []string{"suggestion", "text", "message", "content", "value", "detail", "title", "label"}

// parseAdvicePayload reads an advice payload from a model reply. The
// extracted JSON block is returned for logging.
func parseAdvicePayload(content string) (models.AdvicePayload, string, error) {
	return parseReply(content, adviceFromRoot)
}

func adviceFromRoot(root map[string]json.RawMessage) models.AdvicePayload {
	return models.AdvicePayload{
		Observations:  extractStringList(root, "observations"),
		Actions:       extractStringList(root, "actions"),
		TomorrowFocus: extractStringList(root, "tomorrow_focus"),
		RedFlags:      extractStringList(root, "red_flags"),
	}
}

// parseWeeklyInsightPayload reads a weekly insight from a model reply.
// A missing schema_version reads as 1 and a missing confidence as "".
func parseWeeklyInsightPayload(content string) (models.WeeklyInsightPayload, string, error) {
	return parseReply(content, weeklyFromRoot)
}

func weeklyFromRoot(root map[string]json.RawMessage) models.WeeklyInsightPayload {
	version := 1
	if v, ok := primitiveString(root["schema_version"]); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			version = n
		}
	}
	return models.WeeklyInsightPayload{
		SchemaVersion: version,
		WeekStartDate: extractString(root, "week_start_date"),
		WeekEndDate:   extractString(root, "week_end_date"),
		Summary:       extractString(root, "summary"),
		Highlights:    extractStringList(root, "highlights"),
		Suggestions:   extractStringList(root, "suggestions"),
		Cautions:      extractStringList(root, "cautions"),
		Confidence:    extractString(root, "confidence"),
	}
}

func parseReply[T any](content string, build func(map[string]json.RawMessage) T) (T, string, error) {
	root, block, err := parseRootObject(content)
	if err != nil {
		var zero T
		return zero, block, err
	}
	return build(root), block, nil
}

func parseRootObject(content string) (map[string]json.RawMessage, string, error) {
	block, ok := ExtractJSONBlock(content)
	if !ok {
		return nil, "", formatErr("no JSON block found", nil)
	}
	var root map[string]json.RawMessage
	if err := json.Unmarshal([]byte(block), &root); err != nil {
		return nil, block, formatErr("root is not a JSON object", err)
	}
	if root == nil {
		return nil, block, formatErr("root is null", nil)
	}
	return root, block, nil
}

func extractString(root map[string]json.RawMessage, key string) string {
	s, ok := primitiveString(root[key])
	if !ok || strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}

// extractStringList accepts an array, a single primitive or a single object
func extractStringList(root map[string]json.RawMessage, key string) []string {
	raw, ok := root[key]
	if !ok {
		return nil
	}
	var out []string
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		for _, item := range items {
			if s, ok := coerceToString(item); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s, ok := coerceToString(raw); ok && strings.TrimSpace(s) != "" {
		out = append(out, s)
	}
	return out
}

func coerceToString(raw json.RawMessage) (string, bool) {
	if s, ok := primitiveString(raw); ok {
		return s, true
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil && obj != nil {
		description := nonBlankPrimitive(obj["description"])
		category := nonBlankPrimitive(obj["category"])
		switch {
		case description != "" && category != "":
			return category + "：" + description, true
		case description != "":
			return description, true
		}
		for _, k := range itemTextKeys {
			if s := nonBlankPrimitive(obj[k]); s != "" {
				return s, true
			}
		}
		return compactJSON(raw), true
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) > 0 {
		return coerceToString(arr[0])
	}
	return "", false
}

// primitiveString renders strings, numbers and booleans; null and containers are rejected
func primitiveString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strings.TrimSpace(string(raw)), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

func nonBlankPrimitive(raw json.RawMessage) string {
	s, ok := primitiveString(raw)
	if !ok || strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}

func compactJSON(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return string(raw)
	}
	return string(b)
}

// describeStructure summarises the shape of a JSON document for debug logs
// without including its text.
func describeStructure(block string) string {
	var v any
	if err := json.Unmarshal([]byte(block), &v); err != nil {
		return "unparseable"
	}
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + describeValue(t[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case []any:
		return fmt.Sprintf("array[size=%d]", len(t))
	default:
		return fmt.Sprintf("%T", t)
	}
}

func describeValue(v any) string {
	switch t := v.(type) {
	case []any:
		return fmt.Sprintf("array.size=%d", len(t))
	case map[string]any:
		return fmt.Sprintf("object.keys=%d", len(t))
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", t)
	}
}
