package review

import (
	"github.com/yungbote/codepath-backend/internal/learning/prompts"
	"github.com/yungbote/codepath-backend/internal/structured/schema"
)

const CallSite = "review"

// SchemaDescription is what the model sees; Schema is only used for drift accounting.
const SchemaDescription = `{
  "comments": [
    {
      "lineRange": [startLine, endLine],   // 1-based, inclusive, start <= end
      "type": "suggestion" | "issue" | "praise",
      "severity": "low" | "medium" | "high",
      "comment": string
    }
  ],
  "logicBlocks": [ same shape as comments, one per logical section of the code ],
  "summary": { "overview": string, "strengths": string, "improvements": string },
  "score": integer 0-100
}`

type wireAnnotation struct {
	LineRange [2]int `json:"lineRange" jsonschema_description:"1-based inclusive [start, end]"`
	Type      string `json:"type" jsonschema:"enum=suggestion,enum=issue,enum=praise"`
	Severity  string `json:"severity" jsonschema:"enum=low,enum=medium,enum=high"`
	Comment   string `json:"comment"`
}

type wireSummary struct {
	Overview     string `json:"overview"`
	Strengths    string `json:"strengths"`
	Improvements string `json:"improvements"`
}

type wireResult struct {
	Comments    []wireAnnotation `json:"comments"`
	LogicBlocks []wireAnnotation `json:"logicBlocks,omitempty"`
	Summary     wireSummary      `json:"summary"`
	Score       int              `json:"score" jsonschema:"minimum=0,maximum=100"`
}

var Schema = schema.MustFor[wireResult](CallSite)

var instructions = prompts.MustParse(CallSite, 1, `
You are reviewing a learner's {{orDash .Language}} code.
{{- if .ExerciseTitle}}
The code is a solution to the exercise "{{.ExerciseTitle}}".
{{- end}}
{{- if .ExerciseDescription}}
Exercise description:
{{.ExerciseDescription}}
{{- end}}

Comment on correctness first, then readability and idiom. Cite lines using the numbers on the
left. Use "issue" for bugs, "suggestion" for improvements and "praise" for things done well.
Group the code into logicBlocks that explain what each section does.
Score the submission from 0 to 100.

Code:
{{numbered .Code}}
`)
