package exercise

import (
	"github.com/yungbote/codepath-backend/internal/learning/prompts"
	"github.com/yungbote/codepath-backend/internal/structured/schema"
)

const CallSite = "exercise"

const SchemaDescription = `{
  "title": string,
  "description": string,            // the task, in markdown
  "initialCode": string,            // starter code the learner edits
  "solution": string,               // a complete, passing solution
  "hints": [string],                // ordered from gentle to explicit
  "testCases": [ { "input": any JSON value, "expectedOutput": any JSON value, "description": string } ],
  "language": string,
  "difficulty": "easy" | "medium" | "hard"
}`

type wireTestCase struct {
	Input          any    `json:"input"`
	ExpectedOutput any    `json:"expectedOutput"`
	Description    string `json:"description,omitempty"`
}

type wireExercise struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	InitialCode string         `json:"initialCode"`
	Solution    string         `json:"solution"`
	Hints       []string       `json:"hints"`
	TestCases   []wireTestCase `json:"testCases"`
	Language    string         `json:"language,omitempty"`
	Difficulty  string         `json:"difficulty,omitempty" jsonschema:"enum=easy,enum=medium,enum=hard"`
}

var Schema = schema.MustFor[wireExercise](CallSite)

var instructions = prompts.MustParse(CallSite, 1, `
Write one {{orDash .Difficulty}} coding exercise in {{orDash .Language}} about: {{.Topic}}.
{{- if .Skills}}
It should practice: {{join .Skills ", "}}.
{{- end}}
{{- if .Context}}
Learner context: {{.Context}}
{{- end}}

The starter code must compile but not solve the task. Include at least three test cases,
with inputs and expected outputs as plain JSON values, and two or three hints.
`)
