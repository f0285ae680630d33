// Package insights clamps dashboard insights and applies the regeneration policy around them.
package insights

import (
	"strings"

	"github.com/yungbote/codepath-backend/internal/learning/coerce"
	"github.com/yungbote/codepath-backend/internal/structured/jsonvalue"
)

const (
	MaxItems        = 3
	MaxSummaryRunes = 600
)

type Insights struct {
	StrongPoints       []string `json:"strongPoints"`
	SkillsToStrengthen []string `json:"skillsToStrengthen"`
	Summary            string   `json:"summary,omitempty"`
}

// Normalize never fails; lists that are absent or not arrays come back empty.
func Normalize(v jsonvalue.Value) Insights {
	strong, _ := coerce.Lookup(v, "strongPoints", "strong_points")
	weak, _ := coerce.Lookup(v, "skillsToStrengthen", "skills_to_strengthen")
	return Insights{
		StrongPoints:       coerce.Strings(strong, MaxItems),
		SkillsToStrengthen: coerce.Strings(weak, MaxItems),
		Summary:            strings.TrimSpace(coerce.ClampRunes(coerce.OptionalString(v, "summary"), MaxSummaryRunes)),
	}
}
