// Package schema derives a JSON Schema from a Go wire type and checks repaired values against
// it. The check is advisory: post-processors own the invariants, the schema only measures how
// far a model drifted from the shape it was asked for.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"

	"github.com/yungbote/codepath-backend/internal/structured/jsonvalue"
)

type Schema struct {
	Name     string
	raw      []byte
	compiled *gojsonschema.Schema
}

// For reflects T. Fields without omitempty are required and unknown properties are rejected.
func For[T any](name string) (*Schema, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Anonymous:                 true,
	}
	var v T
	reflected := reflector.Reflect(v)
	reflected.Version = ""

	raw, err := json.MarshalIndent(reflected, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("schema %s: marshal: %w", name, err)
	}
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("schema %s: compile: %w", name, err)
	}
	return &Schema{Name: name, raw: raw, compiled: compiled}, nil
}

// MustFor is For for package-level schema variables.
func MustFor[T any](name string) *Schema {
	s, err := For[T](name)
	if err != nil {
		panic(err)
	}
	return s
}

// JSON is the indented schema document, suitable for a prompt.
func (s *Schema) JSON() string {
	if s == nil {
		return ""
	}
	return string(s.raw)
}

// Check returns one message per violation; an empty slice means v conforms.
func (s *Schema) Check(v jsonvalue.Value) ([]string, error) {
	doc, err := v.MarshalJSON()
	if err != nil {
		return nil, err
	}
	result, err := s.compiled.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("schema %s: validate: %w", s.Name, err)
	}
	if result.Valid() {
		return nil, nil
	}
	violations := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		violations[i] = desc.String()
	}
	return violations, nil
}

// Map decodes the schema document for engines that accept a native JSON schema hint.
func (s *Schema) Map() map[string]any {
	if s == nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(s.raw, &out); err != nil {
		return nil
	}
	return out
}
