// Package exercise builds coding exercises from model output. Unlike reviews, an exercise with
// a missing required field is unusable, so Normalize fails with a *coerce.ValidationError
// instead of defaulting.
package exercise

import (
	"github.com/yungbote/codepath-backend/internal/learning/coerce"
	"github.com/yungbote/codepath-backend/internal/structured/jsonvalue"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"

	DefaultDifficulty = DifficultyMedium
)

var difficulties = []string{DifficultyEasy, DifficultyMedium, DifficultyHard}

var difficultyAliases = map[string]string{
	"beginner":     DifficultyEasy,
	"intermediate": DifficultyMedium,
	"advanced":     DifficultyHard,
}

// TestCase values keep whatever JSON type the model produced.
type TestCase struct {
	Input          jsonvalue.Value `json:"input"`
	ExpectedOutput jsonvalue.Value `json:"expectedOutput"`
	Description    string          `json:"description,omitempty"`
}

type Exercise struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	InitialCode string     `json:"initialCode"`
	Solution    string     `json:"solution"`
	Hints       []string   `json:"hints"`
	TestCases   []TestCase `json:"testCases"`
	Language    string     `json:"language,omitempty"`
	Difficulty  string     `json:"difficulty"`
}

func Normalize(v jsonvalue.Value) (Exercise, error) {
	if err := coerce.RequireObject(v, ""); err != nil {
		return Exercise{}, err
	}
	var ex Exercise
	var err error
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"title", &ex.Title},
		{"description", &ex.Description},
		{"initialCode", &ex.InitialCode},
		{"solution", &ex.Solution},
	} {
		if *f.dst, err = coerce.RequireString(v, "", f.key); err != nil {
			return Exercise{}, err
		}
	}

	if ex.Hints, err = hints(v); err != nil {
		return Exercise{}, err
	}
	if ex.TestCases, err = testCases(v); err != nil {
		return Exercise{}, err
	}

	ex.Language = coerce.OptionalString(v, "language")
	diff, _ := coerce.Lookup(v, "difficulty")
	ex.Difficulty = coerce.Enum(diff, difficulties, difficultyAliases, DefaultDifficulty)
	return ex, nil
}

func hints(v jsonvalue.Value) ([]string, error) {
	items, err := coerce.RequireArray(v, "", "hints")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.Str()
		if !ok {
			return nil, coerce.WrongType(coerce.Index("hints", i), "a string", item)
		}
		out = append(out, s)
	}
	return out, nil
}

func testCases(v jsonvalue.Value) ([]TestCase, error) {
	items, err := coerce.RequireArray(v, "", "testCases")
	if err != nil {
		return nil, err
	}
	out := make([]TestCase, 0, len(items))
	for i, item := range items {
		field := coerce.Index("testCases", i)
		if err := coerce.RequireObject(item, field); err != nil {
			return nil, err
		}
		input, ok := item.Get("input")
		if !ok {
			return nil, coerce.Missing(coerce.Path(field, "input"))
		}
		expected, ok := item.Get("expectedOutput")
		if !ok {
			return nil, coerce.Missing(coerce.Path(field, "expectedOutput"))
		}
		out = append(out, TestCase{
			Input:          input,
			ExpectedOutput: expected,
			Description:    coerce.OptionalString(item, "description"),
		})
	}
	return out, nil
}
