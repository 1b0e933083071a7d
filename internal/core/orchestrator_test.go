package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dh-release/internal/types"
)

func ccsManifest(entries ...types.RawEntry) memManifest {
	return memManifest{sections: map[string][]types.RawEntry{"ccs": entries}, order: []string{"ccs"}}
}

func TestApplyReachesFixedPoint(t *testing.T) {
	world := newFetchWorld(t)
	orchestrator := world.orchestrator(ccsManifest(
		types.RawEntry{Name: "github.eotest", Raw: "0.0.18"},
		types.RawEntry{Name: "executable.archon", Raw: "org-lsst-ccs-subsystem-archon-main"},
		types.RawEntry{Name: "org-lsst-ccs-subsystem-archon-main", Raw: "1.0.0"},
	))
	instDir := t.TempDir()
	req := types.ApplyRequest{ManifestPath: "versions.txt", Section: "ccs", InstDir: instDir}

	first, err := orchestrator.Apply(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Mutations())
	assert.Equal(t, []string{"eotest", "org-lsst-ccs-subsystem-archon-main"}, first.Directories.Names())
	var links []string
	for _, result := range first.Bindings {
		links = append(links, result.Binding.Link)
	}
	wantLinks := []string{
		filepath.Join(instDir, "eotest"),
		filepath.Join(instDir, "org-lsst-ccs-subsystem-archon-main"),
		filepath.Join(instDir, "bin", "archon"),
	}
	if diff := cmp.Diff(wantLinks, links); diff != "" {
		t.Fatalf("downloads must bind before commands are exposed (-want +got):\n%s", diff)
	}

	assert.Equal(t, "eotest_0.0.18", readLink(t, filepath.Join(instDir, "eotest")))
	assert.Equal(t, "org-lsst-ccs-subsystem-archon-main-1.0.0", readLink(t, filepath.Join(instDir, "org-lsst-ccs-subsystem-archon-main")))
	assert.Equal(t, "../org-lsst-ccs-subsystem-archon-main/bin/CCSbootstrap.sh", readLink(t, filepath.Join(instDir, "bin", "archon")))
	_, err = os.Stat(filepath.Join(instDir, "bin", "archon"))
	require.NoError(t, err, "exposed command resolves once every download finished")

	second, err := orchestrator.Apply(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Mutations())
	var outcomes []types.FetchOutcome
	for _, record := range second.Fetches {
		outcomes = append(outcomes, record.Outcome)
	}
	if diff := cmp.Diff([]types.FetchOutcome{types.FetchOutcomePulled, types.FetchOutcomeSkipped}, outcomes); diff != "" {
		t.Fatalf("outcomes mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyBindsPlainSymlinks(t *testing.T) {
	world := newFetchWorld(t)
	orchestrator := world.orchestrator(ccsManifest(
		types.RawEntry{Name: "symlink.current", Raw: "eotest_0.0.18"},
		types.RawEntry{Name: "eotest", Raw: "0.0.18"},
	))
	instDir := t.TempDir()

	report, err := orchestrator.Apply(t.Context(), types.ApplyRequest{ManifestPath: "versions.txt", Section: "ccs", InstDir: instDir})
	require.NoError(t, err)
	require.Len(t, report.Bindings, 2)
	assert.Equal(t, filepath.Join(instDir, "eotest"), report.Bindings[0].Binding.Link, "downloads bind before plain symlinks")
	assert.Equal(t, "eotest_0.0.18", readLink(t, filepath.Join(instDir, "current")))
}

func TestApplyMissingSectionIsSkipped(t *testing.T) {
	world := newFetchWorld(t)
	orchestrator := world.orchestrator(memManifest{sections: map[string][]types.RawEntry{}})

	report, err := orchestrator.Apply(t.Context(), types.ApplyRequest{ManifestPath: "versions.txt", Section: "ccs", InstDir: t.TempDir()})
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	assert.Empty(t, world.git.clones)
}

func TestApplyCollectsUnresolvedPackages(t *testing.T) {
	world := newFetchWorld(t)
	world.locator.missing["ghost"] = struct{}{}
	orchestrator := world.orchestrator(ccsManifest(
		types.RawEntry{Name: "github.", Raw: "1.0"},
		types.RawEntry{Name: "ghost", Raw: "master"},
		types.RawEntry{Name: "eotest", Raw: "0.0.18"},
		types.RawEntry{Name: "executable.boo", Raw: "ghost"},
	))
	instDir := t.TempDir()

	report, err := orchestrator.Apply(t.Context(), types.ApplyRequest{ManifestPath: "versions.txt", Section: "ccs", InstDir: instDir})
	require.Error(t, err)
	assert.True(t, types.IsUnresolved(err))
	assert.Len(t, report.Failed(), 2)
	assert.Equal(t, "eotest_0.0.18", readLink(t, filepath.Join(instDir, "eotest")))
	_, statErr := os.Lstat(filepath.Join(instDir, "bin", "boo"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestApplyRejectsMalformedEntries(t *testing.T) {
	world := newFetchWorld(t)
	orchestrator := world.orchestrator(ccsManifest(types.RawEntry{Name: "executable.", Raw: "pkg"}))

	_, err := orchestrator.Apply(t.Context(), types.ApplyRequest{ManifestPath: "versions.txt", Section: "ccs", InstDir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, types.ErrorMessage(err), types.MsgManifestSchema)
	assert.Empty(t, world.git.clones, "nothing is fetched for an invalid section")
}

func TestBootstrapTarget(t *testing.T) {
	assert.Equal(t, "../archon/bin/CCSbootstrap.sh", BootstrapTarget("archon", "bin", "CCSbootstrap.sh"))
}
