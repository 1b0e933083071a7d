package adapters

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"

	"dh-release/internal/ports"
	"dh-release/internal/shared"
	"dh-release/internal/types"
)

// ExecCommandAdapter runs external programs in an explicit directory.
// Output is captured and logged at debug level; on failure it is attached
// to the error.
type ExecCommandAdapter struct{}

func NewExecCommandAdapter() ExecCommandAdapter {
	return ExecCommandAdapter{}
}

var _ ports.CommandPort = ExecCommandAdapter{}

func (a ExecCommandAdapter) Run(ctx context.Context, command types.Command) error {
	cmd := exec.CommandContext(ctx, command.Name, command.Args...)
	cmd.Dir = command.Dir
	if len(command.Env) > 0 {
		cmd.Env = append(os.Environ(), command.Env...)
	}
	line := shared.CommandLine(command)
	log.Debug().Str("dir", command.Dir).Str("command", line).Msg("running")
	output, err := cmd.CombinedOutput()
	if len(output) > 0 {
		log.Debug().Str("command", line).Msg(strings.TrimSpace(string(output)))
	}
	if err != nil {
		return types.ExternalCommandError(line, shared.CommandError(output, err))
	}
	return nil
}
