package repair

import (
	"errors"
	"strings"

	"github.com/yungbote/codepath-backend/internal/structured/jsonvalue"
)

var errNoObject = errors.New("no '{' in text")

// maxSalvageStarts bounds how many '{' positions are tried as object starts.
const maxSalvageStarts = 32

// salvageCandidates lists the object spans worth trying, most specific first: each balanced
// object in order of appearance (skipping those nested in an earlier one), the truncated tail
// from the first unbalanced '{', and the greedy span from the first '{' to the last '}'.
func salvageCandidates(text string) []string {
	first := strings.IndexByte(text, '{')
	if first == -1 {
		return nil
	}
	var out []string
	add := func(s string) {
		for _, seen := range out {
			if seen == s {
				return
			}
		}
		out = append(out, s)
	}

	start := first
	for n := 0; start != -1 && n < maxSalvageStarts; n++ {
		end := balancedEnd(text, start)
		if end == -1 {
			add(text[start:])
			break
		}
		add(text[start : end+1])
		next := strings.IndexByte(text[end+1:], '{')
		if next == -1 {
			break
		}
		start = end + 1 + next
	}
	if last := strings.LastIndexByte(text, '}'); last > first {
		add(text[first : last+1])
	}
	return out
}

// balancedEnd returns the index of the '}' closing the object opened at start, ignoring
// braces inside double-quoted strings, or -1 when the text ends first.
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func salvage(text string) (jsonvalue.Value, error) {
	candidates := salvageCandidates(text)
	if len(candidates) == 0 {
		return jsonvalue.Value{}, errNoObject
	}
	var errs []error
	for _, c := range candidates {
		v, err := healAndParse(c)
		if err == nil {
			return v, nil
		}
		errs = append(errs, err)
	}
	return jsonvalue.Value{}, errors.Join(errs...)
}

func healAndParse(text string) (jsonvalue.Value, error) {
	healed, err := Heal(text)
	if err != nil {
		return jsonvalue.Value{}, err
	}
	return jsonvalue.ParseString(healed)
}
