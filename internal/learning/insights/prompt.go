package insights

import (
	"github.com/yungbote/codepath-backend/internal/learning/prompts"
	"github.com/yungbote/codepath-backend/internal/structured/schema"
)

const CallSite = "insights"

const SchemaDescription = `{
  "strongPoints": [string],          // at most 3
  "skillsToStrengthen": [string],    // at most 3
  "summary": string                  // two sentences, addressed to the learner
}`

type wireInsights struct {
	StrongPoints       []string `json:"strongPoints" jsonschema:"maxItems=3"`
	SkillsToStrengthen []string `json:"skillsToStrengthen" jsonschema:"maxItems=3"`
	Summary            string   `json:"summary,omitempty"`
}

var Schema = schema.MustFor[wireInsights](CallSite)

var instructions = prompts.MustParse(CallSite, 1, `
Summarize this learner's recent progress for their dashboard.

Completed exercises: {{.CompletedExercises}}
Average review score: {{printf "%.0f" .AverageScore}}
Current streak: {{.StreakDays}} days
{{- if .RecentTopics}}
Recent topics: {{join .RecentTopics ", "}}
{{- end}}
{{- if .RecentIssues}}
Issues raised in recent reviews: {{join .RecentIssues "; "}}
{{- end}}

List what they are doing well and the skills they should work on next.
`)
