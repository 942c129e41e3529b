package automator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/deskpilot/deskpilot/pkg/catalog"
)

// Dispatcher is the automation collaborator: it executes one validated
// command invocation against the target application and returns a
// human-readable result string. Failures are reported as errors; the
// orchestrator folds them back into the next prompt instead of aborting.
type Dispatcher interface {
	Dispatch(ctx context.Context, application string, inv catalog.ActionInvocation) (string, error)
}

// Receiver executes commands against one application.
type Receiver interface {
	Application() string
	Execute(ctx context.Context, inv catalog.ActionInvocation) (string, error)
}

// ErrElementNotEnabled marks transient automation failures worth retrying,
// e.g. a control that has not finished initializing.
var ErrElementNotEnabled = errors.New("element not enabled")

// RetryPolicy bounds retries of transient dispatch failures.
type RetryPolicy struct {
	MaxAttempts int
	Interval    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Interval: 500 * time.Millisecond}
}

// Router dispatches invocations to per-application receivers.
type Router struct {
	receivers map[string]Receiver
	retry     RetryPolicy
}

func NewRouter(retry RetryPolicy, receivers ...Receiver) *Router {
	r := &Router{
		receivers: make(map[string]Receiver, len(receivers)),
		retry:     retry,
	}
	for _, recv := range receivers {
		r.receivers[strings.ToUpper(recv.Application())] = recv
	}
	return r
}

var _ Dispatcher = (*Router)(nil)

func (r *Router) Dispatch(ctx context.Context, application string, inv catalog.ActionInvocation) (string, error) {
	recv, ok := r.receivers[strings.ToUpper(application)]
	if !ok {
		return "", errors.Errorf("no receiver for application %q", application)
	}

	attempts := r.retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := recv.Execute(ctx, inv)
		if err == nil {
			log.Debug().
				Str("application", application).
				Str("command", inv.Command).
				Int("attempt", attempt).
				Msg("automator: dispatched")
			return result, nil
		}
		lastErr = err
		if !errors.Is(err, ErrElementNotEnabled) {
			break
		}
		log.Warn().
			Err(err).
			Str("command", inv.Command).
			Int("attempt", attempt).
			Msg("automator: transient failure, retrying")
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(r.retry.Interval):
		}
	}
	return "", lastErr
}

// Argument coercion helpers. JSON numbers arrive as float64; the command
// handlers own type coercion per the catalog contract.

func argString(args map[string]any, name string, fallback string) string {
	v, ok := args[name]
	if !ok || v == nil {
		return fallback
	}
	switch tv := v.(type) {
	case string:
		return tv
	case float64:
		if tv == float64(int64(tv)) {
			return strconv.FormatInt(int64(tv), 10)
		}
		return strconv.FormatFloat(tv, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", tv)
	}
}

func argInt(args map[string]any, name string, fallback int) int {
	v, ok := args[name]
	if !ok || v == nil {
		return fallback
	}
	switch tv := v.(type) {
	case int:
		return tv
	case float64:
		return int(tv)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(tv)); err == nil {
			return n
		}
	}
	return fallback
}

func argBool(args map[string]any, name string, fallback bool) bool {
	v, ok := args[name]
	if !ok || v == nil {
		return fallback
	}
	switch tv := v.(type) {
	case bool:
		return tv
	case string:
		switch strings.ToLower(strings.TrimSpace(tv)) {
		case "true", "yes", "1":
			return true
		case "false", "no", "0":
			return false
		}
	}
	return fallback
}

func argRows(args map[string]any, name string) [][]any {
	v, ok := args[name]
	if !ok || v == nil {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	rows := make([][]any, 0, len(raw))
	for _, r := range raw {
		if cells, ok := r.([]any); ok {
			rows = append(rows, cells)
		}
	}
	return rows
}

func argStrings(args map[string]any, name string) []string {
	v, ok := args[name]
	if !ok || v == nil {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		out = append(out, fmt.Sprintf("%v", item))
	}
	return out
}

func argInts(args map[string]any, name string) []int {
	v, ok := args[name]
	if !ok || v == nil {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(raw))
	for _, item := range raw {
		if f, ok := item.(float64); ok {
			out = append(out, int(f))
		}
	}
	return out
}
