package agents

import "github.com/deskpilot/deskpilot/pkg/catalog"

// HostResponse is the parsed result of one HostAgent reasoning step.
type HostResponse struct {
	Observation    string     `json:"Observation"`
	Thought        string     `json:"Thought"`
	CurrentSubtask string     `json:"CurrentSubtask"`
	Message        string     `json:"Message"`
	ControlLabel   string     `json:"ControlLabel"`
	ControlText    string     `json:"ControlText"`
	Status         HostStatus `json:"Status" jsonschema:"enum=FINISH,enum=CONTINUE,enum=PENDING,enum=ASSIGN"`
	Plan           string     `json:"Plan"`
	Bash           string     `json:"Bash"`
	Questions      []string   `json:"Questions"`
	Comment        string     `json:"Comment"`
}

// AppResponse is the parsed result of one single-action AppAgent reasoning
// step. SaveScreenshot only appears in the visual variant's documented
// schema; the non-visual decoder tolerates its absence.
type AppResponse struct {
	Observation    string         `json:"Observation"`
	Thought        string         `json:"Thought"`
	ControlLabel   string         `json:"ControlLabel"`
	ControlText    string         `json:"ControlText"`
	Function       string         `json:"Function"`
	Args           map[string]any `json:"Args"`
	Status         AppStatus      `json:"Status" jsonschema:"enum=CONTINUE,enum=FINISH,enum=FAIL,enum=CONFIRM"`
	Plan           string         `json:"Plan"`
	Comment        string         `json:"Comment"`
	SaveScreenshot bool           `json:"SaveScreenshot,omitempty"`
}

// ActionEntry is one single-action-shaped entry of a multi-action batch.
type ActionEntry struct {
	Function     string         `json:"Function"`
	Args         map[string]any `json:"Args"`
	ControlLabel string         `json:"ControlLabel"`
	ControlText  string         `json:"ControlText"`
	Status       AppStatus      `json:"Status" jsonschema:"enum=CONTINUE,enum=FINISH,enum=FAIL,enum=CONFIRM"`
}

// AppMultiResponse is the parsed result of one multi-action AppAgent
// reasoning step. Batching is only legitimate when the listed actions are
// mutually independent; that precondition is enforced by prompt instruction,
// not mechanically.
type AppMultiResponse struct {
	Observation    string        `json:"Observation"`
	Thought        string        `json:"Thought"`
	ActionList     []ActionEntry `json:"ActionList"`
	Plan           string        `json:"Plan"`
	Comment        string        `json:"Comment"`
	SaveScreenshot bool          `json:"SaveScreenshot,omitempty"`
}

// Status returns the status governing the turn: the status of the last
// entry, FAIL when the batch is empty.
func (r *AppMultiResponse) Status() AppStatus {
	if len(r.ActionList) == 0 {
		return AppStatusFail
	}
	return r.ActionList[len(r.ActionList)-1].Status
}

// Invocation converts a single-action response into a command invocation.
func (r *AppResponse) Invocation() catalog.ActionInvocation {
	return catalog.ActionInvocation{
		Command:      r.Function,
		Args:         r.Args,
		ControlLabel: r.ControlLabel,
		ControlText:  r.ControlText,
	}
}

// Invocations converts the batch into command invocations in listed order.
func (r *AppMultiResponse) Invocations() []catalog.ActionInvocation {
	out := make([]catalog.ActionInvocation, 0, len(r.ActionList))
	for _, entry := range r.ActionList {
		out = append(out, catalog.ActionInvocation{
			Command:      entry.Function,
			Args:         entry.Args,
			ControlLabel: entry.ControlLabel,
			ControlText:  entry.ControlText,
		})
	}
	return out
}
