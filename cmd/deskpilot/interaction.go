package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	input "github.com/tcnksm/go-input"

	"github.com/deskpilot/deskpilot/pkg/catalog"
)

// consoleInteraction collects PENDING answers and CONFIRM approvals on the
// terminal.
type consoleInteraction struct {
	ui *input.UI
}

func newConsoleInteraction() *consoleInteraction {
	return &consoleInteraction{
		ui: &input.UI{
			Writer: os.Stdout,
			Reader: os.Stdin,
		},
	}
}

func (c *consoleInteraction) Answer(ctx context.Context, questions []string) ([]string, error) {
	answers := make([]string, 0, len(questions))
	for _, question := range questions {
		answer, err := c.ui.Ask(question, &input.Options{
			Required: true,
			Loop:     true,
		})
		if err != nil {
			return nil, err
		}
		answers = append(answers, answer)
	}
	return answers, nil
}

func (c *consoleInteraction) Confirm(ctx context.Context, invocations []catalog.ActionInvocation) (bool, error) {
	lines := make([]string, 0, len(invocations))
	for _, inv := range invocations {
		lines = append(lines, inv.String())
	}
	query := fmt.Sprintf("The agent wants to execute:\n  %s\nProceed? [y/n]", strings.Join(lines, "\n  "))

	answer, err := c.ui.Ask(query, &input.Options{
		Default:  "n",
		Required: true,
		Loop:     true,
		ValidateFunc: func(s string) error {
			switch strings.ToLower(s) {
			case "y", "yes", "n", "no":
				return nil
			}
			return fmt.Errorf("answer y or n")
		},
	})
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}
