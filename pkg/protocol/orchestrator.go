package protocol

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/deskpilot/deskpilot/pkg/agents"
	"github.com/deskpilot/deskpilot/pkg/automator"
	"github.com/deskpilot/deskpilot/pkg/catalog"
	"github.com/deskpilot/deskpilot/pkg/llm"
	"github.com/deskpilot/deskpilot/pkg/prompts"
)

// DesktopContext is the inspector context enumerating the open applications
// the HostAgent can select from.
const DesktopContext = "DESKTOP"

// BashRunner executes a shell command returned by a HostAgent CONTINUE turn.
type BashRunner interface {
	Run(ctx context.Context, command string) (string, error)
}

// Interaction suspends the protocol for user input: answers to PENDING
// questions and approval of CONFIRM actions.
type Interaction interface {
	Answer(ctx context.Context, questions []string) ([]string, error)
	Confirm(ctx context.Context, invocations []catalog.ActionInvocation) (bool, error)
}

// Orchestrator drives the turn protocol: HostAgent turns decompose the user
// request and assign sub-tasks; AppAgent turns select and dispatch command
// invocations until the sub-task finishes or fails. Execution is strictly
// sequential; the only suspension points are the blocking collaborator
// calls.
type Orchestrator struct {
	engine      llm.Engine
	registry    catalog.Registry
	templates   *prompts.Set
	dispatcher  automator.Dispatcher
	inspector   automator.Inspector
	bash        BashRunner
	interaction Interaction

	visual      bool
	multiAction bool
	maxRetries  int
	maxTurns    int
}

type Option func(*Orchestrator)

func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		maxRetries: 3,
		maxTurns:   50,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func WithEngine(engine llm.Engine) Option {
	return func(o *Orchestrator) { o.engine = engine }
}

func WithCatalog(registry catalog.Registry) Option {
	return func(o *Orchestrator) { o.registry = registry }
}

func WithTemplates(set *prompts.Set) Option {
	return func(o *Orchestrator) { o.templates = set }
}

func WithAutomation(dispatcher automator.Dispatcher) Option {
	return func(o *Orchestrator) { o.dispatcher = dispatcher }
}

func WithInspector(inspector automator.Inspector) Option {
	return func(o *Orchestrator) { o.inspector = inspector }
}

func WithBashRunner(runner BashRunner) Option {
	return func(o *Orchestrator) { o.bash = runner }
}

func WithInteraction(interaction Interaction) Option {
	return func(o *Orchestrator) { o.interaction = interaction }
}

func WithVisual(visual bool) Option {
	return func(o *Orchestrator) { o.visual = visual }
}

func WithMultiAction(multi bool) Option {
	return func(o *Orchestrator) { o.multiAction = multi }
}

// WithMaxRetries bounds re-prompting on schema violations and invocation
// validation errors before the session fails.
func WithMaxRetries(n int) Option {
	return func(o *Orchestrator) { o.maxRetries = n }
}

// WithMaxTurns caps the total number of reasoning turns per session.
func WithMaxTurns(n int) Option {
	return func(o *Orchestrator) { o.maxTurns = n }
}

// Result is the outcome of a session.
type Result struct {
	SessionID string
	State     State
	Comment   string
	History   *History
}

// assignment carries the sub-task delegated by the HostAgent into AppAgent
// turns.
type assignment struct {
	Subtask     string
	Application string
	Label       string
	Message     string
}

// Run executes one session for the user request until the HostAgent reports
// FINISH, an unrecoverable error occurs, or the turn cap is hit.
func (o *Orchestrator) Run(ctx context.Context, userRequest string) (*Result, error) {
	if o.engine == nil {
		return nil, errors.New("orchestrator engine is nil")
	}
	if o.registry == nil {
		return nil, errors.New("orchestrator catalog is nil")
	}
	if o.templates == nil {
		return nil, errors.New("orchestrator template set is nil")
	}
	if o.dispatcher == nil {
		return nil, errors.New("orchestrator automation dispatcher is nil")
	}
	if o.inspector == nil {
		return nil, errors.New("orchestrator control inspector is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result := &Result{
		SessionID: uuid.NewString(),
		State:     StateAwaitHost,
		History:   &History{},
	}
	var current assignment
	var blackboard []string

	log.Info().Str("session_id", result.SessionID).Str("user_request", userRequest).Msg("protocol: session started")

	for turn := 0; turn < o.maxTurns; turn++ {
		if result.State.Terminal() {
			break
		}
		var err error
		switch result.State {
		case StateAwaitHost:
			err = o.hostTurn(ctx, userRequest, result, &current, &blackboard)
		case StateAwaitApp:
			err = o.appTurn(ctx, userRequest, result, &current, &blackboard)
		}
		if err != nil {
			result.State = StateFailed
			log.Error().Err(err).Str("session_id", result.SessionID).Msg("protocol: session failed")
			return result, err
		}
	}

	if !result.State.Terminal() {
		result.State = StateFailed
		return result, errors.Errorf("session exceeded %d turns", o.maxTurns)
	}

	log.Info().
		Str("session_id", result.SessionID).
		Str("state", string(result.State)).
		Int("turns", result.History.Len()).
		Msg("protocol: session ended")
	return result, nil
}

func (o *Orchestrator) hostTurn(
	ctx context.Context,
	userRequest string,
	result *Result,
	current *assignment,
	blackboard *[]string,
) error {
	placeholders := map[string]string{
		"apps":         automator.FormatControlItems(o.inspector.ControlItems(DesktopContext)),
		"prev_results": result.History.RenderResults(8),
		"prev_plan":    result.History.LastPlan(),
		"blackboard":   renderBlackboard(*blackboard),
		"user_request": userRequest,
	}
	mode := prompts.Mode{Visual: o.visual}

	resp, err := o.completeHost(ctx, mode, placeholders)
	if err != nil {
		return err
	}

	record := Record{
		Role:    prompts.RoleHost,
		Status:  string(resp.Status),
		Subtask: resp.CurrentSubtask,
		Plan:    resp.Plan,
		Comment: resp.Comment,
	}

	switch resp.Status {
	case agents.HostStatusAssign:
		*current = assignment{
			Subtask:     resp.CurrentSubtask,
			Application: resp.ControlText,
			Label:       resp.ControlLabel,
			Message:     resp.Message,
		}
		record.Results = []string{fmt.Sprintf("assigned sub-task %q to %s", resp.CurrentSubtask, resp.ControlText)}
		result.History.Append(record)
		result.State = StateAwaitApp

	case agents.HostStatusContinue:
		output := "no bash runner configured; command not executed"
		if o.bash != nil && resp.Bash != "" {
			out, runErr := o.bash.Run(ctx, resp.Bash)
			if runErr != nil {
				output = fmt.Sprintf("bash failed: %s", runErr)
			} else {
				output = out
			}
		}
		record.Invocations = []catalog.ActionInvocation{{ID: uuid.NewString(), Command: "bash", Args: map[string]any{"command": resp.Bash}}}
		record.Results = []string{output}
		result.History.Append(record)
		result.State = StateAwaitHost

	case agents.HostStatusPending:
		if o.interaction == nil {
			return errors.New("host requested user input but no interaction collaborator is configured")
		}
		answers, answerErr := o.interaction.Answer(ctx, resp.Questions)
		if answerErr != nil {
			return errors.Wrap(answerErr, "collect user answers")
		}
		for i, question := range resp.Questions {
			answer := ""
			if i < len(answers) {
				answer = answers[i]
			}
			*blackboard = append(*blackboard, fmt.Sprintf("Q: %s A: %s", question, answer))
		}
		record.Results = []string{fmt.Sprintf("user answered %d question(s)", len(resp.Questions))}
		result.History.Append(record)
		result.State = StateAwaitHost

	case agents.HostStatusFinish:
		record.Results = []string{"request finished"}
		result.History.Append(record)
		result.Comment = resp.Comment
		result.State = StateDone
	}

	return nil
}

// appOutcome flattens single-action and multi-action responses into one
// shape for dispatching.
type appOutcome struct {
	status      agents.AppStatus
	invocations []catalog.ActionInvocation
	plan        string
	comment     string
	// rejected is set when a non-empty ControlLabel does not match any
	// enumerated control: no action is dispatched and the turn counts as a
	// failure, without overriding the textual status.
	rejected string
}

func (o *Orchestrator) appTurn(
	ctx context.Context,
	userRequest string,
	result *Result,
	current *assignment,
	blackboard *[]string,
) error {
	controls := o.inspector.ControlItems(current.Application)
	placeholders := map[string]string{
		"control_item": automator.FormatControlItems(controls),
		"apis":         renderAPIs(o.registry.ListFor(current.Application)),
		"subtask":      current.Subtask,
		"host_message": current.Message,
		"prev_results": result.History.RenderResults(8),
		"prev_plan":    result.History.LastPlan(),
		"user_request": userRequest,
	}
	mode := prompts.Mode{Visual: o.visual, MultiAction: o.multiAction}

	outcome, err := o.completeApp(ctx, mode, placeholders, controls)
	if err != nil {
		return err
	}

	record := Record{
		Role:    prompts.RoleApp,
		Status:  string(outcome.status),
		Subtask: current.Subtask,
		Plan:    outcome.plan,
		Comment: outcome.comment,
	}

	if outcome.rejected != "" {
		record.Results = []string{fmt.Sprintf("sub-task %q failed: %s", current.Subtask, outcome.rejected)}
		result.History.Append(record)
		*blackboard = append(*blackboard, fmt.Sprintf("Sub-task %q failed: %s", current.Subtask, outcome.rejected))
		result.State = StateAwaitHost
		return nil
	}

	switch outcome.status {
	case agents.AppStatusConfirm:
		if o.interaction == nil {
			return errors.New("app requested confirmation but no interaction collaborator is configured")
		}
		approved, confirmErr := o.interaction.Confirm(ctx, outcome.invocations)
		if confirmErr != nil {
			return errors.Wrap(confirmErr, "collect user confirmation")
		}
		if !approved {
			record.Results = []string{fmt.Sprintf("sub-task %q failed: user denied the pending action(s)", current.Subtask)}
			result.History.Append(record)
			*blackboard = append(*blackboard, fmt.Sprintf("Sub-task %q failed: user denied the pending action(s)", current.Subtask))
			result.State = StateAwaitHost
			return nil
		}
		record.Invocations, record.Results = o.dispatchAll(ctx, current.Application, outcome.invocations)
		result.History.Append(record)
		result.State = StateAwaitApp

	case agents.AppStatusContinue:
		record.Invocations, record.Results = o.dispatchAll(ctx, current.Application, outcome.invocations)
		result.History.Append(record)
		result.State = StateAwaitApp

	case agents.AppStatusFinish:
		record.Invocations, record.Results = o.dispatchAll(ctx, current.Application, outcome.invocations)
		result.History.Append(record)
		if outcome.comment != "" {
			*blackboard = append(*blackboard, fmt.Sprintf("Sub-task %q finished: %s", current.Subtask, outcome.comment))
		} else {
			*blackboard = append(*blackboard, fmt.Sprintf("Sub-task %q finished.", current.Subtask))
		}
		result.State = StateAwaitHost

	case agents.AppStatusFail:
		record.Results = []string{fmt.Sprintf("sub-task %q failed: %s", current.Subtask, outcome.comment)}
		result.History.Append(record)
		*blackboard = append(*blackboard, fmt.Sprintf("Sub-task %q failed: %s", current.Subtask, outcome.comment))
		result.State = StateAwaitHost
	}

	return nil
}

// dispatchAll validates nothing further; invocations arrive pre-validated.
// Automation failures are folded into the results as observed state rather
// than raised, so the agent's own reasoning decides how to adapt.
func (o *Orchestrator) dispatchAll(
	ctx context.Context,
	application string,
	invocations []catalog.ActionInvocation,
) ([]catalog.ActionInvocation, []string) {
	results := make([]string, 0, len(invocations))
	dispatched := make([]catalog.ActionInvocation, 0, len(invocations))
	for _, inv := range invocations {
		inv.ID = uuid.NewString()
		output, err := o.dispatcher.Dispatch(ctx, application, inv)
		if err != nil {
			output = fmt.Sprintf("failed: %s", err)
		}
		log.Debug().
			Str("command", inv.Command).
			Str("application", application).
			Str("result", output).
			Msg("protocol: action dispatched")
		dispatched = append(dispatched, inv)
		results = append(results, output)
	}
	return dispatched, results
}

// completeHost runs one HostAgent completion with bounded re-prompting on
// schema violations.
func (o *Orchestrator) completeHost(
	ctx context.Context,
	mode prompts.Mode,
	placeholders map[string]string,
) (*agents.HostResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		request, err := o.templates.Render(prompts.RoleHost, mode, withRetryContext(placeholders, lastErr))
		if err != nil {
			// Configuration errors are fatal, never retried.
			return nil, err
		}
		raw, err := o.engine.Complete(ctx, request.System, request.User)
		if err != nil {
			return nil, errors.Wrap(err, "host completion")
		}
		resp, err := agents.ParseHostResponse(mode, raw)
		if err == nil {
			return resp, nil
		}
		if !errors.Is(err, agents.ErrSchemaViolation) {
			return nil, err
		}
		log.Warn().Err(err).Int("attempt", attempt+1).Msg("protocol: host response rejected, re-prompting")
		lastErr = err
	}
	return nil, errors.Wrapf(lastErr, "host response still invalid after %d retries", o.maxRetries)
}

// completeApp runs one AppAgent completion with bounded re-prompting on
// schema violations and invocation validation errors.
func (o *Orchestrator) completeApp(
	ctx context.Context,
	mode prompts.Mode,
	placeholders map[string]string,
	controls []automator.ControlItem,
) (*appOutcome, error) {
	var lastErr error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		request, err := o.templates.Render(prompts.RoleApp, mode, withRetryContext(placeholders, lastErr))
		if err != nil {
			return nil, err
		}
		raw, err := o.engine.Complete(ctx, request.System, request.User)
		if err != nil {
			return nil, errors.Wrap(err, "app completion")
		}

		outcome, err := o.parseAppTurn(mode, raw, controls)
		if err == nil {
			return outcome, nil
		}
		if !errors.Is(err, agents.ErrSchemaViolation) && !errors.Is(err, catalog.ErrValidation) && !errors.Is(err, catalog.ErrUnknownCommand) {
			return nil, err
		}
		log.Warn().Err(err).Int("attempt", attempt+1).Msg("protocol: app response rejected, re-prompting")
		lastErr = err
	}
	return nil, errors.Wrapf(lastErr, "app response still invalid after %d retries", o.maxRetries)
}

func (o *Orchestrator) parseAppTurn(mode prompts.Mode, raw string, controls []automator.ControlItem) (*appOutcome, error) {
	outcome := &appOutcome{}

	var entries []catalog.ActionInvocation
	if mode.MultiAction {
		resp, err := agents.ParseAppMultiResponse(mode, raw)
		if err != nil {
			return nil, err
		}
		outcome.status = resp.Status()
		outcome.plan = resp.Plan
		outcome.comment = resp.Comment
		entries = resp.Invocations()
	} else {
		resp, err := agents.ParseAppResponse(mode, raw)
		if err != nil {
			return nil, err
		}
		outcome.status = resp.Status
		outcome.plan = resp.Plan
		outcome.comment = resp.Comment
		entries = []catalog.ActionInvocation{resp.Invocation()}
	}

	for _, inv := range entries {
		// A non-empty control label that matches nothing on screen means the
		// turn cannot be dispatched; the textual status stands, but the turn
		// counts as a failure. Checked on every entry, command or not, so a
		// no-op entry cannot smuggle a hallucinated label past validation.
		if inv.ControlLabel != "" && !automator.ContainsLabel(controls, inv.ControlLabel) {
			vErr := &catalog.ValidationError{
				Kind:    catalog.KindUnknownControl,
				Command: inv.Command,
				Control: inv.ControlLabel,
			}
			outcome.rejected = vErr.Error()
			outcome.invocations = nil
			return outcome, nil
		}
		if inv.Command == "" {
			continue
		}
		if err := o.registry.Validate(inv); err != nil {
			return nil, err
		}
		outcome.invocations = append(outcome.invocations, inv)
	}
	return outcome, nil
}

// withRetryContext appends the previous violation to the prev_results
// placeholder so the agent sees why its last response was rejected.
func withRetryContext(placeholders map[string]string, lastErr error) map[string]string {
	if lastErr == nil {
		return placeholders
	}
	out := make(map[string]string, len(placeholders))
	for k, v := range placeholders {
		out[k] = v
	}
	out["prev_results"] = strings.TrimRight(out["prev_results"], "\n") +
		fmt.Sprintf("\n- protocol: your previous response was rejected: %s. Respond again, following the documented JSON schema exactly.", lastErr)
	return out
}

func renderBlackboard(notes []string) string {
	if len(notes) == 0 {
		return "(empty)"
	}
	var b strings.Builder
	for _, note := range notes {
		fmt.Fprintf(&b, "- %s\n", note)
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderAPIs documents the catalog commands available to the AppAgent for
// the apis placeholder.
func renderAPIs(specs iter.Seq[catalog.CommandSpec]) string {
	var b strings.Builder
	for spec := range specs {
		fmt.Fprintf(&b, "- %s: %s\n", spec.Signature(), spec.Summary)
		if spec.Precondition != "" {
			fmt.Fprintf(&b, "  precondition: %s\n", spec.Precondition)
		}
		if spec.Example != "" {
			fmt.Fprintf(&b, "  example: %s\n", spec.Example)
		}
		if spec.Returns != "" {
			fmt.Fprintf(&b, "  returns: %s\n", spec.Returns)
		}
	}
	if b.Len() == 0 {
		return "(none)"
	}
	return strings.TrimRight(b.String(), "\n")
}
