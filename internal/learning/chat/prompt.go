package chat

import (
	"github.com/yungbote/codepath-backend/internal/learning/prompts"
	"github.com/yungbote/codepath-backend/internal/structured/schema"
)

const CallSite = "chat"

const SchemaDescription = `{
  "reply": string,          // markdown, addressed to the learner
  "followUps": [string]     // up to 3 short questions the learner might ask next
}`

type wireReply struct {
	Reply     string   `json:"reply" jsonschema:"minLength=1"`
	FollowUps []string `json:"followUps,omitempty" jsonschema:"maxItems=3"`
}

var Schema = schema.MustFor[wireReply](CallSite)

var instructions = prompts.MustParse(CallSite, 1, `
You are a patient programming tutor. Guide the learner toward the answer instead of handing over
full solutions.
{{- if .ExerciseTitle}}

They are working on the exercise "{{.ExerciseTitle}}".
{{- end}}
{{- if .Code}}

Their current code:
{{numbered .Code}}
{{- end}}
{{- if .History}}

Conversation so far:
{{- range .History}}
{{.Role}}: {{.Content}}
{{- end}}
{{- end}}

Learner: {{.Message}}
`)
