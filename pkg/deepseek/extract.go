package deepseek

import "strings"

const fence = "```"

// ExtractJSONBlock pulls the JSON document out of a model reply. A reply that
// starts with a code fence yields the fenced body; otherwise the first
// balanced {...} block is used, then the first balanced [...] block.
// Braces inside JSON strings are ignored. It returns false when nothing is found.
func ExtractJSONBlock(content string) (string, bool) {
	trimmed := strings.TrimSpace(content)
	if body, ok := fromCodeFence(trimmed); ok {
		return body, true
	}
	if block, ok := balancedBlock(trimmed, '{', '}'); ok {
		return block, true
	}
	return balancedBlock(trimmed, '[', ']')
}

func fromCodeFence(text string) (string, bool) {
	if !strings.HasPrefix(text, fence) {
		return "", false
	}
	body := ""
	if nl := strings.IndexByte(text, '\n'); nl != -1 {
		body = text[nl+1:]
	}
	end := strings.LastIndex(body, fence)
	if end == -1 {
		return "", false
	}
	body = strings.TrimSpace(body[:end])
	return body, body != ""
}

func balancedBlock(text string, open, close byte) (string, bool) {
	start, depth := -1, 0
	inString, escaped := false, false

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
			continue
		case c == '\\' && inString:
			escaped = true
			continue
		case c == '"':
			inString = !inString
			continue
		case inString:
			continue
		}

		switch c {
		case open:
			if depth == 0 {
				start = i
			}
			depth++
		case close:
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start != -1 {
				return strings.TrimSpace(text[start : i+1]), true
			}
		}
	}
	return "", false
}
