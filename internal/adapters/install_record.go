package adapters

import (
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/afero"

	"dh-release/internal/ports"
)

const (
	InstalledVersionsFile = "installed_versions.txt"
	InstallArgsFile       = ".installArgs"
)

// InstallRecordAdapter keeps the files that describe how an install
// directory was produced.
type InstallRecordAdapter struct {
	fs afero.Fs
}

func NewInstallRecordAdapter(fs afero.Fs) InstallRecordAdapter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return InstallRecordAdapter{fs: fs}
}

var _ ports.InstallRecordPort = InstallRecordAdapter{}

// CopyManifest stores a verbatim copy of the manifest in the install dir.
func (a InstallRecordAdapter) CopyManifest(manifestPath string, instDir string) (string, error) {
	data, err := afero.ReadFile(a.fs, manifestPath)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to read manifest").
			WithCause(err)
	}
	dest := filepath.Join(instDir, InstalledVersionsFile)
	if err := afero.WriteFile(a.fs, dest, data, 0o644); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to record installed versions").
			WithCause(err)
	}
	return dest, nil
}

// WriteInstallArgs writes one argument per line unless the file already
// exists. It reports whether a file was written.
func (a InstallRecordAdapter) WriteInstallArgs(instDir string, args []string) (bool, error) {
	path := filepath.Join(instDir, InstallArgsFile)
	exists, err := afero.Exists(a.fs, path)
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to check install arguments").
			WithCause(err)
	}
	if exists {
		return false, nil
	}
	content := strings.Join(args, "\n") + "\n"
	if err := afero.WriteFile(a.fs, path, []byte(content), 0o644); err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write install arguments").
			WithCause(err)
	}
	return true, nil
}

// ReadInstallArgs returns the non-empty lines of an arguments file.
func (a InstallRecordAdapter) ReadInstallArgs(path string) ([]string, error) {
	data, err := afero.ReadFile(a.fs, path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to read install arguments").
			WithCause(err)
	}
	var args []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		args = append(args, line)
	}
	return args, nil
}
