package protocol

import (
	"fmt"
	"strings"

	"github.com/deskpilot/deskpilot/pkg/catalog"
	"github.com/deskpilot/deskpilot/pkg/prompts"
)

// Record is the retained outcome of one turn. Records are owned exclusively
// by the orchestrating loop and folded into subsequent prompt placeholders.
type Record struct {
	Role        prompts.Role
	Status      string
	Subtask     string
	Plan        string
	Comment     string
	Invocations []catalog.ActionInvocation
	Results     []string
}

// History is the ordered session history.
type History struct {
	records []Record
}

func (h *History) Append(r Record) {
	h.records = append(h.records, r)
}

func (h *History) Len() int {
	return len(h.records)
}

// Records returns a copy of the retained records.
func (h *History) Records() []Record {
	return append([]Record(nil), h.records...)
}

// LastPlan returns the most recent non-empty plan, used for the prev_plan
// placeholder.
func (h *History) LastPlan() string {
	for i := len(h.records) - 1; i >= 0; i-- {
		if h.records[i].Plan != "" {
			return h.records[i].Plan
		}
	}
	return "(none)"
}

// RenderResults renders the results of the most recent turns for the
// prev_results placeholder.
func (h *History) RenderResults(limit int) string {
	if limit <= 0 {
		limit = len(h.records)
	}
	start := len(h.records) - limit
	if start < 0 {
		start = 0
	}

	var b strings.Builder
	for _, record := range h.records[start:] {
		for i, result := range record.Results {
			prefix := string(record.Role)
			if i < len(record.Invocations) {
				prefix = record.Invocations[i].Command
			}
			fmt.Fprintf(&b, "- %s: %s\n", prefix, result)
		}
	}
	if b.Len() == 0 {
		return "(none)"
	}
	return strings.TrimRight(b.String(), "\n")
}
