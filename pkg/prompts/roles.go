package prompts

import "fmt"

// Role identifies which agent a prompt or response belongs to.
type Role string

const (
	// RoleHost is the top-level orchestrator selecting applications and
	// decomposing the user request into sub-tasks.
	RoleHost Role = "host"
	// RoleApp is the per-application agent selecting controls and commands
	// to execute one sub-task.
	RoleApp Role = "app"
)

func (r Role) IsValid() bool {
	return r == RoleHost || r == RoleApp
}

// Mode selects a template variant within a role. Visual variants expect
// screenshots alongside the prompt; MultiAction lets an AppAgent batch
// several mutually independent actions in one turn. MultiAction has no
// meaning for the host role.
type Mode struct {
	Visual      bool
	MultiAction bool
}

// Key is the exact template selection key. Templates are selected by key,
// never inferred.
type Key struct {
	Role Role
	Mode Mode
}

func (k Key) String() string {
	name := string(k.Role)
	if k.Mode.Visual {
		name += "_visual"
	} else {
		name += "_nonvisual"
	}
	if k.Mode.MultiAction {
		name += "_multi"
	}
	return name
}

// UnknownRoleModeError reports a render request for a (role, mode) pair with
// no template. This is a configuration error, not a runtime recoverable one.
type UnknownRoleModeError struct {
	Key Key
}

func (e *UnknownRoleModeError) Error() string {
	return fmt.Sprintf("no template for role/mode %s", e.Key)
}

// MissingPlaceholderError reports a placeholder required by the selected
// template that is absent from the supplied mapping.
type MissingPlaceholderError struct {
	Name string
}

func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("missing placeholder %q", e.Name)
}
