package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CommandSpec describes a single named application-level command that an
// AppAgent may invoke. Specs are immutable after catalog load and are shared
// by every turn; Clone before handing one out for mutation.
type CommandSpec struct {
	Name         string          `json:"name" yaml:"name"`
	Summary      string          `json:"summary" yaml:"summary"`
	ClassName    string          `json:"class_name" yaml:"class_name"`
	Parameters   []ParameterSpec `json:"parameters" yaml:"parameters"`
	Example      string          `json:"example,omitempty" yaml:"example,omitempty"`
	Precondition string          `json:"precondition,omitempty" yaml:"precondition,omitempty"`
	Returns      string          `json:"returns,omitempty" yaml:"returns,omitempty"`
	// Applications lists the application contexts (process names such as
	// "WINWORD.EXE") the command is available for.
	Applications []string `json:"applications,omitempty" yaml:"applications,omitempty"`
}

// ParameterSpec is one entry of a command's ordered parameter list.
// A parameter with no default is required.
type ParameterSpec struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Default     *any   `json:"default,omitempty" yaml:"default,omitempty"`
}

// Required reports whether the parameter must appear in every invocation.
func (p ParameterSpec) Required() bool {
	return p.Default == nil
}

// Signature renders the call signature documented for the command, e.g.
// "select_paragraph(start_index: int, end_index: int, non_empty: bool = True)".
func (s CommandSpec) Signature() string {
	params := make([]string, 0, len(s.Parameters))
	for _, p := range s.Parameters {
		part := fmt.Sprintf("%s: %s", p.Name, p.Type)
		if p.Default != nil {
			part = fmt.Sprintf("%s = %v", part, *p.Default)
		}
		params = append(params, part)
	}
	return fmt.Sprintf("%s(%s)", s.Name, strings.Join(params, ", "))
}

// Parameter looks up a parameter by name.
func (s CommandSpec) Parameter(name string) (ParameterSpec, bool) {
	for _, p := range s.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterSpec{}, false
}

// AvailableFor reports whether the spec belongs to the given application
// context. A spec with no application tags is available everywhere.
func (s CommandSpec) AvailableFor(application string) bool {
	if len(s.Applications) == 0 {
		return true
	}
	for _, app := range s.Applications {
		if strings.EqualFold(app, application) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the spec.
func (s CommandSpec) Clone() CommandSpec {
	out := s
	out.Parameters = make([]ParameterSpec, len(s.Parameters))
	copy(out.Parameters, s.Parameters)
	out.Applications = append([]string(nil), s.Applications...)
	return out
}

// ActionInvocation is one concrete command call produced by an AppAgent turn.
type ActionInvocation struct {
	ID           string         `json:"id,omitempty"`
	Command      string         `json:"command"`
	Args         map[string]any `json:"args"`
	ControlLabel string         `json:"control_label,omitempty"`
	ControlText  string         `json:"control_text,omitempty"`
}

func (a ActionInvocation) String() string {
	args, _ := json.Marshal(a.Args)
	return fmt.Sprintf("%s(%s)", a.Command, string(args))
}
