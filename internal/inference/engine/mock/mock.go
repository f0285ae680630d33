package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/yungbote/codepath-backend/internal/inference/engine"
)

// canned completions per schema name, fenced and prefixed with prose the way real models
// often answer, so offline runs go through the repair path.
var canned = map[string]string{
	"exercise": `{"title":"Sum of a slice","description":"Write a function that returns the sum of a slice of integers.","initialCode":"func Sum(xs []int) int {\n\treturn 0\n}","solution":"func Sum(xs []int) int {\n\tt := 0\n\tfor _, x := range xs {\n\t\tt += x\n\t}\n\treturn t\n}","hints":["Start from zero","Range over the slice"],"testCases":[{"input":[1,2,3],"expectedOutput":6},{"input":[],"expectedOutput":0}],"language":"go","difficulty":"easy"}`,
	"review":   `{"comments":[{"lineRange":[3,3],"type":"suggestion","severity":"low","comment":"Name the accumulator total."},{"lineRange":[1,2],"type":"praise","comment":"Clear signature."}],"summary":{"overview":"Correct and readable.","strengths":"Simple loop.","improvements":"Naming."},"score":88}`,
	"roadmap":  `{"title":"Go fundamentals","checkpoints":[{"title":"Syntax","description":"Variables, loops and functions.","order":1,"skills":["variables","loops"]},{"title":"Collections","description":"Slices and maps.","order":2}]}`,
	"insights": `{"strongPoints":["Loops","Slices"],"skillsToStrengthen":["Error handling"],"summary":"Steady progress."}`,
	"chat":     `{"reply":"Try printing the slice length before the loop.","followUps":["What does len return for nil?"]}`,
}

// Engine is an offline backend. Responses can be scripted per call; otherwise a canned
// completion is chosen by schema name.
type Engine struct {
	mu        sync.Mutex
	responses []string
	calls     []Call
	Err       error
}

type Call struct {
	Model    string
	Messages []engine.Message
	Opts     engine.GenerateOptions
}

func New() *Engine {
	return &Engine{}
}

// Script queues completions returned in order before falling back to canned output.
func (e *Engine) Script(responses ...string) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.responses = append(e.responses, responses...)
	return e
}

func (e *Engine) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Call, len(e.calls))
	copy(out, e.calls)
	return out
}

func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	e.mu.Lock()
	e.calls = append(e.calls, Call{Model: model, Messages: messages, Opts: opts})
	if e.Err != nil {
		err := e.Err
		e.mu.Unlock()
		return "", err
	}
	if len(e.responses) > 0 {
		next := e.responses[0]
		e.responses = e.responses[1:]
		e.mu.Unlock()
		return next, nil
	}
	e.mu.Unlock()

	if opts.JSONSchema != nil {
		if body, ok := canned[opts.JSONSchema.Name]; ok {
			return "Here you go:\n```json\n" + body + "\n```", nil
		}
		return fmt.Sprintf(`{"ok":true,"schema":%q}`, opts.JSONSchema.Name), nil
	}

	var user string
	for i := len(messages) - 1; i >= 0; i-- {
		if strings.EqualFold(messages[i].Role, engine.RoleUser) {
			user = messages[i].Content
			break
		}
	}
	if strings.TrimSpace(user) == "" {
		return "mock: ok", nil
	}
	return fmt.Sprintf("mock: %s", user), nil
}
