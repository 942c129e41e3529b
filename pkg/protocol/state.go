package protocol

// State is the turn-protocol state.
type State string

const (
	// StateAwaitHost waits for the next HostAgent reasoning turn.
	StateAwaitHost State = "AWAIT_HOST"
	// StateAwaitApp waits for the next AppAgent reasoning turn against the
	// assigned application.
	StateAwaitApp State = "AWAIT_APP"
	// StateDone is terminal: the HostAgent reported FINISH.
	StateDone State = "DONE"
	// StateFailed is terminal: an unrecoverable protocol error, or retry
	// exhaustion on recoverable ones.
	StateFailed State = "FAILED"
)

// Terminal reports whether the state ends the session.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
