// Package repair turns a raw model completion into a parsed JSON value.
//
// Passes run in increasing order of invasiveness and the first success wins:
// strip fences and prose, strict parse, heal near-miss syntax, then salvage an embedded object.
package repair

import (
	"fmt"

	"github.com/yungbote/codepath-backend/internal/structured/jsonvalue"
)

type Pass uint8

const (
	PassStrict Pass = iota + 1
	PassHeal
	PassSalvage
)

func (p Pass) String() string {
	switch p {
	case PassStrict:
		return "strict"
	case PassHeal:
		return "heal"
	case PassSalvage:
		return "salvage"
	default:
		return "none"
	}
}

type Result struct {
	Value jsonvalue.Value
	// Pass is the pass that produced Value.
	Pass Pass
}

// Repair never returns a default value: it either parses something out of raw or returns
// *UnrepairableResponseError.
func Repair(raw string) (Result, error) {
	fenced := stripFences(raw)
	stripped := trimProse(fenced)

	var causes []error

	v, err := jsonvalue.ParseString(stripped)
	if err == nil {
		return Result{Value: v, Pass: PassStrict}, nil
	}
	causes = append(causes, fmt.Errorf("%s: %w", PassStrict, err))

	v, err = healAndParse(stripped)
	if err == nil {
		return Result{Value: v, Pass: PassHeal}, nil
	}
	causes = append(causes, fmt.Errorf("%s: %w", PassHeal, err))

	v, err = salvage(fenced)
	if err == nil {
		return Result{Value: v, Pass: PassSalvage}, nil
	}
	causes = append(causes, fmt.Errorf("%s: %w", PassSalvage, err))

	return Result{}, &UnrepairableResponseError{Raw: raw, Causes: causes}
}
