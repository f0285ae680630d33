package roadmap

import (
	"github.com/yungbote/codepath-backend/internal/learning/prompts"
	"github.com/yungbote/codepath-backend/internal/structured/schema"
)

const CallSite = "roadmap"

const SchemaDescription = `{
  "title": string,
  "summary": string,
  "checkpoints": [
    { "title": string, "description": string, "order": integer starting at 1, "skills": [string] }
  ]
}`

type wireCheckpoint struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Order       int      `json:"order" jsonschema:"minimum=1"`
	Skills      []string `json:"skills,omitempty"`
}

type wirePlan struct {
	Title       string           `json:"title,omitempty"`
	Summary     string           `json:"summary,omitempty"`
	Checkpoints []wireCheckpoint `json:"checkpoints" jsonschema:"minItems=1"`
}

var Schema = schema.MustFor[wirePlan](CallSite)

var instructions = prompts.MustParse(CallSite, 1, `
Plan a learning roadmap toward this goal: {{.Goal}}
Current level: {{orDash .CurrentLevel}}
Language or stack: {{orDash .Language}}
{{- if .WeeklyHours}}
Available time: about {{.WeeklyHours}} hours per week.
{{- end}}
{{- if .KnownSkills}}
Already comfortable with: {{join .KnownSkills ", "}}.
{{- end}}

Break the path into {{if .Checkpoints}}{{.Checkpoints}}{{else}}5 to 8{{end}} checkpoints, in the order
they should be completed. Each checkpoint needs a short title, a description of what the learner
will be able to do and the skills it covers.
`)
