package protocol

import (
	"context"
	"os/exec"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
)

// ExecRunner runs HostAgent shell commands through the local shell.
type ExecRunner struct{}

var _ BashRunner = (*ExecRunner)(nil)

func (r *ExecRunner) Run(ctx context.Context, command string) (string, error) {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", command)
	} else {
		cmd = exec.CommandContext(ctx, "bash", "-c", command)
	}

	log.Debug().Str("command", command).Msg("protocol: running shell command")
	output, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(output)), err
}
