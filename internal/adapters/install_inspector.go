package adapters

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"dh-release/internal/ports"
	"dh-release/internal/types"
)

// InstallInspectorAdapter reads the link topology of an install dir.
// Classification of versioned directories is left to the caller.
type InstallInspectorAdapter struct {
	BinDir string
}

func NewInstallInspectorAdapter(binDir string) InstallInspectorAdapter {
	if binDir == "" {
		binDir = "bin"
	}
	return InstallInspectorAdapter{BinDir: binDir}
}

var _ ports.InspectorPort = InstallInspectorAdapter{}

func (a InstallInspectorAdapter) Inspect(instDir string) (types.InstallStatus, error) {
	status := types.InstallStatus{InstDir: instDir}
	entries, err := os.ReadDir(instDir)
	if err != nil {
		return status, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to read install directory").
			WithCause(err)
	}
	for _, entry := range entries {
		path := filepath.Join(instDir, entry.Name())
		switch {
		case entry.Type()&fs.ModeSymlink != 0:
			status.Links = append(status.Links, linkStatus(path))
		case entry.IsDir() && entry.Name() != a.BinDir:
			status.VersionedDirs = append(status.VersionedDirs, types.VersionedDir{Name: entry.Name()})
		case entry.Name() == "setup.sh":
			status.HasSetup = true
		}
	}
	binEntries, err := os.ReadDir(filepath.Join(instDir, a.BinDir))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return status, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read bin directory").
			WithCause(err)
	}
	for _, entry := range binEntries {
		if entry.Type()&fs.ModeSymlink == 0 {
			continue
		}
		status.Executables = append(status.Executables, linkStatus(filepath.Join(instDir, a.BinDir, entry.Name())))
	}
	sort.Slice(status.Links, func(i, j int) bool { return status.Links[i].Name < status.Links[j].Name })
	sort.Slice(status.Executables, func(i, j int) bool { return status.Executables[i].Name < status.Executables[j].Name })
	return status, nil
}

func linkStatus(path string) types.LinkStatus {
	link := types.LinkStatus{Name: filepath.Base(path), State: types.LinkStateOK}
	target, err := os.Readlink(path)
	if err == nil {
		link.Target = target
	}
	if _, err := os.Stat(path); err != nil {
		link.State = types.LinkStateDangling
	}
	return link
}
