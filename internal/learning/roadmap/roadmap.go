// Package roadmap shapes a generated learning plan into ordered checkpoints.
package roadmap

import (
	"github.com/yungbote/codepath-backend/internal/learning/coerce"
	"github.com/yungbote/codepath-backend/internal/structured/jsonvalue"
)

type Checkpoint struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Order       int      `json:"order"`
	Skills      []string `json:"skills"`
}

type Plan struct {
	Title       string       `json:"title,omitempty"`
	Summary     string       `json:"summary,omitempty"`
	Checkpoints []Checkpoint `json:"checkpoints"`
}

// Normalize keeps the model's array order. Order values are kept when every checkpoint has a
// distinct one; otherwise all checkpoints are renumbered 1..n by position.
func Normalize(v jsonvalue.Value) (Plan, error) {
	if err := coerce.RequireObject(v, ""); err != nil {
		return Plan{}, err
	}
	items, err := coerce.RequireArray(v, "", "checkpoints")
	if err != nil {
		return Plan{}, err
	}
	if len(items) == 0 {
		return Plan{}, &coerce.ValidationError{Field: "checkpoints", Reason: "must not be empty"}
	}

	plan := Plan{
		Title:       coerce.OptionalString(v, "title"),
		Summary:     coerce.OptionalString(v, "summary"),
		Checkpoints: make([]Checkpoint, 0, len(items)),
	}
	seen := make(map[int]struct{}, len(items))
	resequence := false
	for i, item := range items {
		field := coerce.Index("checkpoints", i)
		if err := coerce.RequireObject(item, field); err != nil {
			return Plan{}, err
		}
		title, err := coerce.RequireString(item, field, "title")
		if err != nil {
			return Plan{}, err
		}
		desc, err := coerce.RequireString(item, field, "description")
		if err != nil {
			return Plan{}, err
		}

		orderV, _ := coerce.Lookup(item, "order")
		order, ok := coerce.Int(orderV)
		if !ok {
			resequence = true
		} else if _, dup := seen[order]; dup {
			resequence = true
		}
		seen[order] = struct{}{}

		skillsV, _ := coerce.Lookup(item, "skills")
		plan.Checkpoints = append(plan.Checkpoints, Checkpoint{
			Title:       title,
			Description: desc,
			Order:       order,
			Skills:      coerce.Strings(skillsV, 0),
		})
	}
	if resequence {
		for i := range plan.Checkpoints {
			plan.Checkpoints[i].Order = i + 1
		}
	}
	return plan, nil
}
