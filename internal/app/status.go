package app

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"dh-release/internal/core"
	"dh-release/internal/types"
)

func (s Service) Status(_ context.Context, req StatusRequest) (StatusResult, error) {
	if strings.TrimSpace(req.InstDir) == "" {
		return StatusResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("install directory is required")
	}
	instDir, err := filepath.Abs(req.InstDir)
	if err != nil {
		return StatusResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid install directory").
			WithCause(err)
	}
	status, err := s.Inspector.Inspect(instDir)
	if err != nil {
		return StatusResult{}, err
	}
	status.VersionedDirs = classifyVersionedDirs(status, nil)
	return StatusResult{Status: status}, nil
}

// classifyVersionedDirs names the package and version of every directory
// and marks those a stable link points at. Extra package names help split
// directories of packages that have no link.
func classifyVersionedDirs(status types.InstallStatus, extra []string) []types.VersionedDir {
	known := append([]string(nil), extra...)
	for _, link := range status.Links {
		known = append(known, link.Name)
	}
	linked := core.LinkedDirNames(status)
	out := make([]types.VersionedDir, 0, len(status.VersionedDirs))
	for _, dir := range status.VersionedDirs {
		parsed, ok := core.ParseVersionedDir(dir.Name, known)
		if !ok {
			parsed = types.VersionedDir{Name: dir.Name}
		}
		_, parsed.Linked = linked[dir.Name]
		out = append(out, parsed)
	}
	return out
}
