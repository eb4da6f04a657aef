package perception

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when a response carries no parseable JSON value.
var ErrNoJSON = errors.New("no JSON value found in response")

// ExtractJSON locates the first JSON array or object embedded in free text.
// Markdown code fences are stripped first. The first balanced span is
// preferred; if it does not parse, the greedy span ending at the last
// matching closer is tried. Returns "" when nothing usable is found.
func ExtractJSON(text string) string {
	text = stripCodeFences(text)

	start := strings.IndexAny(text, "[{")
	if start < 0 {
		return ""
	}
	open := text[start]
	closer := byte(']')
	if open == '{' {
		closer = '}'
	}

	if end := balancedEnd(text, start); end > start {
		candidate := text[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate
		}
	}

	last := strings.LastIndexByte(text, closer)
	if last <= start {
		return ""
	}
	candidate := text[start : last+1]
	if json.Valid([]byte(candidate)) {
		return candidate
	}
	return ""
}

// ParseEmbeddedJSON decodes the first JSON value embedded in text into an
// untyped tree (map[string]any, []any, float64, string, bool, nil).
func ParseEmbeddedJSON(text string) (any, error) {
	raw := ExtractJSON(text)
	if raw == "" {
		return nil, ErrNoJSON
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("decode embedded JSON: %w", err)
	}
	return v, nil
}

// balancedEnd returns the index of the bracket closing text[start], honoring
// string literals and escapes, or -1 if the span never closes.
func balancedEnd(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "```") {
		return s
	}
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}
