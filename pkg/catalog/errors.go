package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrValidation     = errors.New("validation error")
)

// ValidationKind classifies invocation validation failures.
type ValidationKind string

const (
	KindMissingRequiredArgument ValidationKind = "missing_required_argument"
	KindUnexpectedArgument      ValidationKind = "unexpected_argument"
	KindUnknownControl          ValidationKind = "unknown_control"
)

// UnknownCommandError reports an invocation of a command name with no
// catalog entry.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	if e == nil {
		return ErrUnknownCommand.Error()
	}
	return fmt.Sprintf("unknown command %q", e.Name)
}

func (e *UnknownCommandError) Is(target error) bool { return target == ErrUnknownCommand }

// ValidationError reports an invocation that resolves to a known command but
// violates its usage contract.
type ValidationError struct {
	Kind     ValidationKind
	Command  string
	Argument string
	Control  string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ErrValidation.Error()
	}
	switch e.Kind {
	case KindMissingRequiredArgument:
		return fmt.Sprintf("command %q: missing required argument %q", e.Command, e.Argument)
	case KindUnexpectedArgument:
		return fmt.Sprintf("command %q: unexpected argument %q", e.Command, e.Argument)
	case KindUnknownControl:
		return fmt.Sprintf("command %q: unknown control %q", e.Command, e.Control)
	default:
		return fmt.Sprintf("command %q: %s", e.Command, e.Kind)
	}
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
