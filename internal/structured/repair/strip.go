package repair

import (
	"encoding/json"
	"strings"
)

const fence = "```"

// Strip removes the byte-order mark, surrounding whitespace, markdown code fences and, when the
// remainder still is not valid JSON, prose lines before and after the JSON literal.
func Strip(raw string) string {
	return trimProse(stripFences(raw))
}

// stripFences returns the body of the first fenced block, or the trimmed input when no line
// opens a fence. An unclosed fence (truncated completion) runs to the end of the text.
func stripFences(raw string) string {
	s := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
	if !strings.Contains(s, fence) {
		return s
	}

	lines := strings.Split(s, "\n")
	open := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), fence) {
			open = i
			break
		}
	}
	if open == -1 {
		return s
	}

	head := strings.TrimPrefix(strings.TrimSpace(lines[open]), fence)
	// ```{"a":1}``` on a single line
	if idx := strings.Index(head, fence); idx != -1 {
		return strings.TrimSpace(head[:idx])
	}

	var body []string
	// the rest of the opening line is a language tag unless it already looks like JSON
	if t := strings.TrimSpace(head); strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[") {
		body = append(body, t)
	}
	for _, line := range lines[open+1:] {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, fence) {
			break
		}
		if strings.HasSuffix(t, fence) {
			body = append(body, strings.TrimSuffix(t, fence))
			break
		}
		body = append(body, line)
	}
	return strings.TrimSpace(strings.Join(body, "\n"))
}

func trimProse(s string) string {
	if s == "" || json.Valid([]byte(s)) {
		return s
	}
	lines := strings.Split(s, "\n")
	first, last := -1, -1
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if first == -1 && (strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[")) {
			first = i
		}
		if strings.HasSuffix(t, "}") || strings.HasSuffix(t, "]") {
			last = i
		}
	}
	if first == -1 {
		return s
	}
	if last < first {
		return strings.TrimSpace(strings.Join(lines[first:], "\n"))
	}
	return strings.TrimSpace(strings.Join(lines[first:last+1], "\n"))
}
