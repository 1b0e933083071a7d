package adapters

import (
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/afero"

	"dh-release/internal/ports"
	"dh-release/internal/shared"
	"dh-release/internal/types"
)

// SetupFileAdapter renders setup.sh and answers the composer's existence
// probes against the same filesystem.
type SetupFileAdapter struct {
	fs afero.Fs
}

func NewSetupFileAdapter(fs afero.Fs) SetupFileAdapter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return SetupFileAdapter{fs: fs}
}

var (
	_ ports.SetupWriterPort = SetupFileAdapter{}
	_ ports.ProbePort       = SetupFileAdapter{}
)

func (a SetupFileAdapter) WriteSetup(path string, env types.Environment) error {
	if err := a.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create setup directory").
			WithCause(err)
	}
	if err := afero.WriteFile(a.fs, path, []byte(shared.RenderEnvironment(env)), 0o644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write setup script").
			WithCause(err)
	}
	return nil
}

func (a SetupFileAdapter) DirExists(path string) bool {
	ok, err := afero.DirExists(a.fs, path)
	return err == nil && ok
}

func (a SetupFileAdapter) Glob(pattern string) []string {
	matches, err := afero.Glob(a.fs, pattern)
	if err != nil {
		return nil
	}
	return matches
}
