package adapters

import (
	"context"

	"dh-release/internal/ports"
	"dh-release/internal/types"
)

// GitSourceAdapter drives the git CLI. Pulls use -C so the process working
// directory is never changed.
type GitSourceAdapter struct {
	Runner ports.CommandPort
	Binary string
}

func NewGitSourceAdapter(runner ports.CommandPort) GitSourceAdapter {
	return GitSourceAdapter{Runner: runner, Binary: "git"}
}

var _ ports.SourceControlPort = GitSourceAdapter{}

func (a GitSourceAdapter) Clone(ctx context.Context, url string, ref string, dir string) error {
	return a.Runner.Run(ctx, types.Command{
		Name: a.binary(),
		Args: []string{"clone", "--branch", ref, url, dir},
	})
}

func (a GitSourceAdapter) Pull(ctx context.Context, dir string) error {
	return a.Runner.Run(ctx, types.Command{
		Name: a.binary(),
		Args: []string{"-C", dir, "pull"},
	})
}

func (a GitSourceAdapter) binary() string {
	if a.Binary == "" {
		return "git"
	}
	return a.Binary
}
