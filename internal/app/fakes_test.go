package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"dh-release/internal/adapters"
	"dh-release/internal/types"
)

type fakeGit struct {
	mu     sync.Mutex
	clones []string
	pulls  []string
}

func (g *fakeGit) Clone(_ context.Context, url string, ref string, dir string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clones = append(g.clones, url+"@"+ref)
	return os.MkdirAll(dir, 0o755)
}

func (g *fakeGit) Pull(_ context.Context, dir string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pulls = append(g.pulls, filepath.Base(dir))
	return nil
}

type fakeLocator struct {
	missing map[string]struct{}
}

func (l fakeLocator) Locate(_ context.Context, name string) (types.RepoLocation, error) {
	if _, ok := l.missing[name]; ok {
		return types.RepoLocation{}, types.UnresolvedPackageError(name, "not hosted by any organisation", nil)
	}
	return types.RepoLocation{Org: "lsst-camera-dh", URL: "https://github.com/lsst-camera-dh/" + name}, nil
}

type fakeDownloader struct {
	mu   sync.Mutex
	urls []string
}

func (d *fakeDownloader) Download(_ context.Context, url string, dest string) error {
	d.mu.Lock()
	d.urls = append(d.urls, url)
	d.mu.Unlock()
	return os.WriteFile(dest, []byte(url), 0o644)
}

// fakeUnpacker creates dest with a bootstrap script, plus any extra files
// registered for the directory's base name.
type fakeUnpacker struct {
	extra map[string][]string
}

func (u fakeUnpacker) UnpackTarGz(archive string, dest string) error {
	return u.unpack(dest)
}

func (u fakeUnpacker) UnpackZip(archive string, dest string) error {
	return u.unpack(dest)
}

func (u fakeUnpacker) unpack(dest string) error {
	files := append([]string{filepath.Join("bin", "CCSbootstrap.sh")}, u.extra[filepath.Base(dest)]...)
	for _, file := range files {
		path := filepath.Join(dest, file)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte("#!/bin/bash\n"), 0o755); err != nil {
			return err
		}
	}
	return nil
}

type fakeCommands struct {
	mu       sync.Mutex
	commands []types.Command
	err      error
}

func (c *fakeCommands) Run(_ context.Context, command types.Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = append(c.commands, command)
	return c.err
}

type fakeCatalog struct {
	versions map[string][]string
}

func (c fakeCatalog) Versions(_ context.Context, pkg types.PackageDescriptor) ([]string, error) {
	versions, ok := c.versions[pkg.Name]
	if !ok {
		return nil, types.UnresolvedPackageError(pkg.Name, "no releases", nil)
	}
	return versions, nil
}

type testWorld struct {
	service    Service
	git        *fakeGit
	downloader *fakeDownloader
	commands   *fakeCommands
	unpacker   *fakeUnpacker
	locator    *fakeLocator
}

func newTestWorld(t *testing.T) *testWorld {
	t.Helper()
	policy := types.DefaultPolicy()
	osFS := afero.NewOsFs()
	setup := adapters.NewSetupFileAdapter(osFS)
	world := &testWorld{
		git:        &fakeGit{},
		downloader: &fakeDownloader{},
		commands:   &fakeCommands{},
		unpacker:   &fakeUnpacker{extra: map[string][]string{}},
		locator:    &fakeLocator{missing: map[string]struct{}{}},
	}
	world.service = Service{
		Manifest:    adapters.NewIniManifestAdapter(),
		FS:          adapters.NewOSLinkFSAdapter(),
		Commands:    world.commands,
		Git:         world.git,
		Downloader:  world.downloader,
		Unpacker:    world.unpacker,
		Staging:     adapters.NewStagingDirAdapter(t.TempDir()),
		Locator:     world.locator,
		SetupWriter: setup,
		Probe:       setup,
		Records:     adapters.NewInstallRecordAdapter(osFS),
		Inspector:   adapters.NewInstallInspectorAdapter(policy.Entries.BinDir),
		Policy:      policy,
	}
	return world
}

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "versions.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const ccsManifest = `[ccs]
github.eotest = 0.0.18
org-lsst-ccs-subsystem-archon-main = 1.0.0
executable.archon = org-lsst-ccs-subsystem-archon-main
symlink.current = eotest_0.0.18
`
