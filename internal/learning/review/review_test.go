package review

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/codepath-backend/internal/structured/jsonvalue"
	"github.com/yungbote/codepath-backend/internal/structured/repair"
)

func parse(t *testing.T, raw string) jsonvalue.Value {
	t.Helper()
	res, err := repair.Repair(raw)
	require.NoError(t, err)
	return res.Value
}

func defaultSummary() Summary {
	return Summary{
		Overview:     DefaultSummaryOverview,
		Strengths:    DefaultSummaryStrengths,
		Improvements: DefaultSummaryImprovements,
	}
}

func TestNormalize_ClampsScoreAndFillsSummary(t *testing.T) {
	v := parse(t, "Here is the answer:\n```json\n{\"score\": 150, \"comments\": [], \"summary\": {}}\n```")
	got := Normalize(v)

	assert.Equal(t, 100, got.Score)
	assert.Equal(t, defaultSummary(), got.Summary)
	assert.NotNil(t, got.Comments)
	assert.Empty(t, got.Comments)
	assert.Empty(t, got.LogicBlocks)
}

func TestNormalize_LegacyErrorTypeAndNaNScore(t *testing.T) {
	v := parse(t, `{"comments":[{"lineRange":[10,3], "type":"error", "comment":"x"}], "summary": null, "score": "NaN"}`)
	got := Normalize(v)

	require.Len(t, got.Comments, 1)
	assert.Equal(t, Annotation{LineRange: LineRange{3, 10}, Type: TypeIssue, Severity: SeverityHigh, Comment: "x"}, got.Comments[0])
	assert.Equal(t, defaultSummary(), got.Summary)
	assert.Equal(t, DefaultScore, got.Score)
}

func TestNormalize_LineRanges(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want LineRange
	}{
		{"ordered", `[2, 5]`, LineRange{2, 5}},
		{"reversed", `[9, 4]`, LineRange{4, 9}},
		{"numeric strings", `["7", "3"]`, LineRange{3, 7}},
		{"rounded", `[1.4, 2.6]`, LineRange{1, 3}},
		{"negative clamped", `[-5, 2]`, LineRange{0, 2}},
		{"extra elements ignored", `[3, 4, 99]`, LineRange{3, 4}},
		{"single element", `[8]`, LineRange{8, 8}},
		{"bare number", `12`, LineRange{12, 12}},
		{"numeric string", `"6"`, LineRange{6, 6}},
		{"object", `{"start": 9, "end": 2}`, LineRange{2, 9}},
		{"object start only", `{"start": 4}`, LineRange{4, 4}},
		{"empty array", `[]`, LineRange{1, 1}},
		{"garbage element", `[1, "x"]`, LineRange{1, 1}},
		{"string", `"lines 3-4"`, LineRange{1, 1}},
		{"null", `null`, LineRange{1, 1}},
		{"huge", `[1, 1e20]`, LineRange{1, math.MaxInt32}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := parse(t, `{"comments":[{"lineRange":`+tc.in+`,"comment":"c"}]}`)
			got := Normalize(v)
			require.Len(t, got.Comments, 1)
			assert.Equal(t, tc.want, got.Comments[0].LineRange)
		})
	}
}

func TestNormalize_EnumsAndAliases(t *testing.T) {
	v := parse(t, `{"comments":[
		{"lineRange":[1,1],"type":"PRAISE","severity":"Low","comment":"a"},
		{"lineRange":[1,1],"kind":"issue","comment":"b"},
		{"lineRange":[1,1],"type":"nitpick","severity":"critical","text":"c"},
		{"lineRange":[1,1],"type":"issue","severity":"extreme","message":"d"}
	]}`)
	got := Normalize(v).Comments
	require.Len(t, got, 4)

	assert.Equal(t, TypePraise, got[0].Type)
	assert.Equal(t, SeverityLow, got[0].Severity)
	assert.Equal(t, TypeIssue, got[1].Type)
	assert.Equal(t, SeverityHigh, got[1].Severity)
	assert.Equal(t, TypeSuggestion, got[2].Type)
	assert.Equal(t, SeverityMedium, got[2].Severity)
	assert.Equal(t, "c", got[2].Comment)
	assert.Equal(t, SeverityHigh, got[3].Severity)
	assert.Equal(t, "d", got[3].Comment)
}

func TestNormalize_DropsUnusableEntries(t *testing.T) {
	v := parse(t, `{"comments":[1, "text", null, {"lineRange":[1,1]}, {"comment":"   "}, {"comment":" kept "}], "logicBlocks": "nope"}`)
	got := Normalize(v)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "kept", got.Comments[0].Comment)
	assert.Equal(t, LineRange{1, 1}, got.Comments[0].LineRange)
	assert.NotNil(t, got.LogicBlocks)
	assert.Empty(t, got.LogicBlocks)
}

func TestNormalize_StableSortByStart(t *testing.T) {
	v := parse(t, `{"comments":[
		{"lineRange":[5,6],"comment":"e1"},
		{"lineRange":[2,9],"comment":"b1"},
		{"lineRange":[5,5],"comment":"e2"},
		{"lineRange":[2,2],"comment":"b2"},
		{"lineRange":[0,1],"comment":"a"}
	]}`)
	var order []string
	for _, c := range Normalize(v).Comments {
		order = append(order, c.Comment)
	}
	assert.Equal(t, []string{"a", "b1", "b2", "e1", "e2"}, order)
}

func TestNormalize_Score(t *testing.T) {
	cases := map[string]int{
		`88`:         88,
		`88.5`:       89,
		`"91"`:       91,
		`-3`:         0,
		`1e9`:        100,
		`"Infinity"`: DefaultScore,
		`"great"`:    DefaultScore,
		`null`:       DefaultScore,
		`[90]`:       DefaultScore,
	}
	for in, want := range cases {
		got := Normalize(parse(t, `{"score":`+in+`}`))
		assert.Equal(t, want, got.Score, in)
	}
	assert.Equal(t, DefaultScore, Normalize(parse(t, `{}`)).Score)
}

func TestNormalize_SummaryShapes(t *testing.T) {
	got := Normalize(parse(t, `{"summary":"  Solid work. "}`)).Summary
	assert.Equal(t, "Solid work.", got.Overview)
	assert.Equal(t, DefaultSummaryStrengths, got.Strengths)

	got = Normalize(parse(t, `{"summary":{"overview":"o","strengths":7,"improvements":" i "}}`)).Summary
	assert.Equal(t, Summary{Overview: "o", Strengths: DefaultSummaryStrengths, Improvements: "i"}, got)
}

func TestNormalize_NonObjectInput(t *testing.T) {
	for _, raw := range []string{`[]`, `"text"`, `42`, `null`} {
		got := Normalize(parse(t, raw))
		assert.Equal(t, DefaultScore, got.Score)
		assert.Equal(t, defaultSummary(), got.Summary)
		assert.Empty(t, got.Comments)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		`{"comments":[{"lineRange":[10,3],"type":"error","comment":" x "},{"lineRange":"2","comment":"y","severity":"LOW"}],"logicBlocks":[{"lineRange":[1,4],"comment":"setup"}],"summary":"ok","score":"64.5"}`,
		`{"score": 150, "comments": [], "summary": {}}`,
		`{}`,
	}
	for _, raw := range inputs {
		once := Normalize(parse(t, raw))
		encoded, err := json.Marshal(once)
		require.NoError(t, err)
		twice := Normalize(parse(t, string(encoded)))
		assert.Equal(t, once, twice, raw)
	}
}

func TestNormalize_LineRangeInvariant(t *testing.T) {
	v := parse(t, `{"comments":[
		{"lineRange":[-1,-9],"comment":"a"},
		{"lineRange":["x",2],"comment":"b"},
		{"lineRange":{"start":"-4","end":3},"comment":"c"},
		{"lineRange":[3.7],"comment":"d"}
	]}`)
	result := Normalize(v)
	prev := -1
	for _, c := range result.Comments {
		assert.GreaterOrEqual(t, c.LineRange.Start(), 0)
		assert.LessOrEqual(t, c.LineRange.Start(), c.LineRange.End())
		assert.GreaterOrEqual(t, c.LineRange.Start(), prev)
		prev = c.LineRange.Start()
	}
}
