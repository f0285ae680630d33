// Package review normalizes model-written code reviews. Normalize never fails: every field
// the model omits or garbles is replaced with a default.
package review

import (
	"math"
	"sort"
	"strings"

	"github.com/yungbote/codepath-backend/internal/learning/coerce"
	"github.com/yungbote/codepath-backend/internal/structured/jsonvalue"
)

const (
	TypeSuggestion = "suggestion"
	TypeIssue      = "issue"
	TypePraise     = "praise"

	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"

	DefaultScore               = 70
	DefaultSummaryOverview     = "The review did not include an overview."
	DefaultSummaryStrengths    = "No specific strengths were highlighted."
	DefaultSummaryImprovements = "No specific improvements were suggested."

	MaxCommentRunes = 2000
)

var (
	types      = []string{TypeSuggestion, TypeIssue, TypePraise}
	severities = []string{SeverityLow, SeverityMedium, SeverityHigh}
	// "error" is an older name for issue; it is accepted on input and never emitted.
	typeAliases = map[string]string{"error": TypeIssue}
)

// LineRange is [start, end] with 0 <= start <= end.
type LineRange [2]int

func (r LineRange) Start() int { return r[0] }
func (r LineRange) End() int   { return r[1] }

var defaultRange = LineRange{1, 1}

type Annotation struct {
	LineRange LineRange `json:"lineRange"`
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Comment   string    `json:"comment"`
}

type Summary struct {
	Overview     string `json:"overview"`
	Strengths    string `json:"strengths"`
	Improvements string `json:"improvements"`
}

type Result struct {
	Comments    []Annotation `json:"comments"`
	LogicBlocks []Annotation `json:"logicBlocks"`
	Summary     Summary      `json:"summary"`
	Score       int          `json:"score"`
}

func Normalize(v jsonvalue.Value) Result {
	comments, _ := coerce.Lookup(v, "comments")
	blocks, _ := coerce.Lookup(v, "logicBlocks", "logic_blocks")
	summary, _ := coerce.Lookup(v, "summary")
	score, _ := coerce.Lookup(v, "score")
	return Result{
		Comments:    annotations(comments),
		LogicBlocks: annotations(blocks),
		Summary:     normalizeSummary(summary),
		Score:       normalizeScore(score),
	}
}

func annotations(v jsonvalue.Value) []Annotation {
	out := []Annotation{}
	items, _ := v.Array()
	for _, item := range items {
		if item.Kind() != jsonvalue.KindObject {
			continue
		}
		text := coerce.OptionalString(item, "comment", "text", "message")
		if text == "" {
			continue
		}
		kindV, _ := coerce.Lookup(item, "type", "kind")
		kind := coerce.Enum(kindV, types, typeAliases, TypeSuggestion)

		fallback := SeverityMedium
		if kind == TypeIssue {
			fallback = SeverityHigh
		}
		sevV, _ := coerce.Lookup(item, "severity")

		rangeV, _ := coerce.Lookup(item, "lineRange", "line_range", "lines")
		out = append(out, Annotation{
			LineRange: lineRange(rangeV),
			Type:      kind,
			Severity:  coerce.Enum(sevV, severities, nil, fallback),
			Comment:   strings.TrimSpace(coerce.ClampRunes(text, MaxCommentRunes)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LineRange.Start() < out[j].LineRange.Start()
	})
	return out
}

func lineRange(v jsonvalue.Value) LineRange {
	switch v.Kind() {
	case jsonvalue.KindArray:
		items, _ := v.Array()
		switch len(items) {
		case 0:
			return defaultRange
		case 1:
			n, ok := lineNumber(items[0])
			if !ok {
				return defaultRange
			}
			return LineRange{n, n}
		default:
			return ordered(items[0], items[1])
		}
	case jsonvalue.KindObject:
		start, _ := coerce.Lookup(v, "start", "from")
		end, ok := coerce.Lookup(v, "end", "to")
		if !ok {
			end = start
		}
		return ordered(start, end)
	default:
		n, ok := lineNumber(v)
		if !ok {
			return defaultRange
		}
		return LineRange{n, n}
	}
}

func ordered(a, b jsonvalue.Value) LineRange {
	x, okA := lineNumber(a)
	y, okB := lineNumber(b)
	if !okA || !okB {
		return defaultRange
	}
	if x > y {
		x, y = y, x
	}
	return LineRange{x, y}
}

func lineNumber(v jsonvalue.Value) (int, bool) {
	f, ok := coerce.Number(v)
	if !ok {
		return 0, false
	}
	f = math.Round(f)
	if f < 0 {
		return 0, true
	}
	if f > math.MaxInt32 {
		return math.MaxInt32, true
	}
	return int(f), true
}

func normalizeSummary(v jsonvalue.Value) Summary {
	s := Summary{
		Overview:     DefaultSummaryOverview,
		Strengths:    DefaultSummaryStrengths,
		Improvements: DefaultSummaryImprovements,
	}
	switch v.Kind() {
	case jsonvalue.KindString:
		if text, _ := v.Str(); strings.TrimSpace(text) != "" {
			s.Overview = strings.TrimSpace(text)
		}
	case jsonvalue.KindObject:
		if text := coerce.OptionalString(v, "overview"); text != "" {
			s.Overview = text
		}
		if text := coerce.OptionalString(v, "strengths"); text != "" {
			s.Strengths = text
		}
		if text := coerce.OptionalString(v, "improvements"); text != "" {
			s.Improvements = text
		}
	}
	return s
}

func normalizeScore(v jsonvalue.Value) int {
	f, ok := coerce.Number(v)
	if !ok {
		return DefaultScore
	}
	return coerce.ClampInt(int(math.Max(-1, math.Min(101, math.Round(f)))), 0, 100)
}
