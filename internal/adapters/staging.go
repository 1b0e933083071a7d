package adapters

import (
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/adrg/xdg"
	"github.com/google/uuid"

	"dh-release/internal/ports"
)

// StagingDirAdapter hands out unique download paths below a cache
// directory, $XDG_CACHE_HOME/dh-install/downloads unless overridden.
type StagingDirAdapter struct {
	Dir string
}

func NewStagingDirAdapter(dir string) StagingDirAdapter {
	if dir == "" {
		dir = DefaultStagingDir()
	}
	return StagingDirAdapter{Dir: dir}
}

var _ ports.StagingPort = StagingDirAdapter{}

func DefaultStagingDir() string {
	return filepath.Join(xdg.CacheHome, "dh-install", "downloads")
}

func (a StagingDirAdapter) TempFile(name string) (string, error) {
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create staging directory").
			WithCause(err)
	}
	return filepath.Join(a.Dir, uuid.NewString()+"-"+filepath.Base(name)), nil
}
