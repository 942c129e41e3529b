package llm

import (
	"context"

	"github.com/pkg/errors"
)

// Engine is the LLM collaborator: it receives a fully rendered prompt
// (system + user sections) and returns raw text that is expected, but not
// guaranteed, to parse as JSON matching the role's schema. The call blocks
// until the completion arrives; timeout and cancellation policy belong to
// the caller's context.
type Engine interface {
	Complete(ctx context.Context, system string, user string) (string, error)
}

// ScriptEngine replays a fixed sequence of responses. Used by tests and by
// dry runs.
type ScriptEngine struct {
	Responses []string
	next      int
}

func NewScriptEngine(responses ...string) *ScriptEngine {
	return &ScriptEngine{Responses: responses}
}

func (e *ScriptEngine) Complete(ctx context.Context, system string, user string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if e.next >= len(e.Responses) {
		return "", errors.New("script engine: no responses left")
	}
	resp := e.Responses[e.next]
	e.next++
	return resp, nil
}

// Calls reports how many completions have been served.
func (e *ScriptEngine) Calls() int {
	return e.next
}
