package engine

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

// JSONSchema is a hint for backends with a native JSON output mode. Engines may ignore it;
// callers still repair whatever text comes back.
type JSONSchema struct {
	Name   string
	Schema map[string]any
}

type GenerateOptions struct {
	Temperature float64
	MaxTokens   int
	JSONSchema  *JSONSchema
}

// Engine is a text-completion backend. Implementations return the completion text verbatim;
// they do not parse or validate it.
type Engine interface {
	GenerateText(ctx context.Context, model string, messages []Message, opts GenerateOptions) (string, error)
}

// SplitSystem separates system messages (joined with blank lines) from the conversation, for
// backends that take the system prompt as a separate field.
func SplitSystem(messages []Message) (string, []Message) {
	var system string
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
