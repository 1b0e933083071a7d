package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"dh-release/internal/adapters"
	"dh-release/internal/policies"
	"dh-release/internal/types"
)

type memManifest struct {
	sections map[string][]types.RawEntry
	order    []string
}

func (m memManifest) ReadSection(path string, section string) ([]types.RawEntry, error) {
	entries, ok := m.sections[section]
	if !ok {
		return nil, types.MissingSectionError(path, section)
	}
	return entries, nil
}

func (m memManifest) Sections(string) ([]string, error) {
	return m.order, nil
}

type recordingGit struct {
	clones []string
	pulls  []string
}

func (g *recordingGit) Clone(_ context.Context, url string, ref string, dir string) error {
	g.clones = append(g.clones, url+"@"+ref)
	return os.MkdirAll(dir, 0o755)
}

func (g *recordingGit) Pull(_ context.Context, dir string) error {
	g.pulls = append(g.pulls, filepath.Base(dir))
	return nil
}

type staticLocator struct {
	missing map[string]struct{}
}

func (l staticLocator) Locate(_ context.Context, name string) (types.RepoLocation, error) {
	if _, ok := l.missing[name]; ok {
		return types.RepoLocation{}, types.UnresolvedPackageError(name, "no organisation hosts it", nil)
	}
	return types.RepoLocation{Org: "lsst-camera-dh", URL: "https://github.com/lsst-camera-dh/" + name}, nil
}

type recordingDownloader struct {
	urls []string
	err  error
}

func (d *recordingDownloader) Download(_ context.Context, url string, dest string) error {
	d.urls = append(d.urls, url)
	if d.err != nil {
		return d.err
	}
	return os.WriteFile(dest, []byte(url), 0o644)
}

// markerUnpacker creates dest with a bootstrap script and records the
// archive it unpacked.
type markerUnpacker struct {
	unpacked []string
}

func (u *markerUnpacker) UnpackTarGz(archive string, dest string) error {
	return u.unpack(archive, dest)
}

func (u *markerUnpacker) UnpackZip(archive string, dest string) error {
	return u.unpack(archive, dest)
}

func (u *markerUnpacker) unpack(archive string, dest string) error {
	u.unpacked = append(u.unpacked, filepath.Base(dest))
	if _, err := os.Stat(archive); err != nil {
		return err
	}
	script := filepath.Join(dest, "bin", "CCSbootstrap.sh")
	if err := os.MkdirAll(filepath.Dir(script), 0o755); err != nil {
		return err
	}
	return os.WriteFile(script, []byte("#!/bin/bash\n"), 0o755)
}

type fetchWorld struct {
	fetcher    PackageFetcher
	git        *recordingGit
	downloader *recordingDownloader
	unpacker   *markerUnpacker
	locator    *staticLocator
}

func newFetchWorld(t *testing.T) *fetchWorld {
	t.Helper()
	policy := types.DefaultPolicy()
	fs := adapters.NewOSLinkFSAdapter()
	world := &fetchWorld{
		git:        &recordingGit{},
		downloader: &recordingDownloader{},
		unpacker:   &markerUnpacker{},
		locator:    &staticLocator{missing: map[string]struct{}{}},
	}
	world.fetcher = PackageFetcher{
		FS:         fs,
		Binder:     NewSymlinkBinder(fs),
		Git:        world.git,
		Locator:    world.locator,
		Downloader: world.downloader,
		Unpacker:   world.unpacker,
		Staging:    adapters.NewStagingDirAdapter(t.TempDir()),
		Protocols:  policy.Protocols,
		Sources:    policy.Sources,
	}
	return world
}

func (w *fetchWorld) orchestrator(manifest memManifest) Orchestrator {
	policy := types.DefaultPolicy()
	return Orchestrator{
		Manifest:   NewManifestStore(manifest, DefaultSchemas(policy.Sections)),
		Classifier: policies.NewProtocolTable(policy.Protocols),
		Fetcher:    w.fetcher,
		Binder:     w.fetcher.Binder,
		FS:         w.fetcher.FS,
		Entries:    policy.Entries,
	}
}

func readLink(t *testing.T, path string) string {
	t.Helper()
	target, err := os.Readlink(path)
	require.NoError(t, err)
	return target
}
