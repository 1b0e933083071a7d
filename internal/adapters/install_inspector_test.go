package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dh-release/internal/types"
)

func TestInstallInspectorAdapterInspect(t *testing.T) {
	inst := t.TempDir()
	for _, dir := range []string{"eotest_0.0.18", "org-lsst-ccs-archon-1.0.0/bin", "bin"} {
		require.NoError(t, os.MkdirAll(filepath.Join(inst, dir), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(inst, "org-lsst-ccs-archon-1.0.0", "bin", "CCSbootstrap.sh"), nil, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(inst, "setup.sh"), nil, 0o644))
	require.NoError(t, os.Symlink("eotest_0.0.18", filepath.Join(inst, "eotest")))
	require.NoError(t, os.Symlink("org-lsst-ccs-archon-1.0.0", filepath.Join(inst, "org-lsst-ccs-archon")))
	require.NoError(t, os.Symlink("eotest_0.0.17", filepath.Join(inst, "current")))
	require.NoError(t, os.Symlink("../org-lsst-ccs-archon/bin/CCSbootstrap.sh", filepath.Join(inst, "bin", "archon")))
	require.NoError(t, os.Symlink("../missing/bin/CCSbootstrap.sh", filepath.Join(inst, "bin", "ghost")))

	status, err := NewInstallInspectorAdapter("").Inspect(inst)
	require.NoError(t, err)
	assert.True(t, status.HasSetup)
	assert.Equal(t, []types.LinkStatus{
		{Name: "current", Target: "eotest_0.0.17", State: types.LinkStateDangling},
		{Name: "eotest", Target: "eotest_0.0.18", State: types.LinkStateOK},
		{Name: "org-lsst-ccs-archon", Target: "org-lsst-ccs-archon-1.0.0", State: types.LinkStateOK},
	}, status.Links)
	assert.Equal(t, []types.LinkStatus{
		{Name: "archon", Target: "../org-lsst-ccs-archon/bin/CCSbootstrap.sh", State: types.LinkStateOK},
		{Name: "ghost", Target: "../missing/bin/CCSbootstrap.sh", State: types.LinkStateDangling},
	}, status.Executables)

	var names []string
	for _, dir := range status.VersionedDirs {
		names = append(names, dir.Name)
	}
	assert.ElementsMatch(t, []string{"eotest_0.0.18", "org-lsst-ccs-archon-1.0.0"}, names)
}

func TestInstallInspectorAdapterMissingDir(t *testing.T) {
	_, err := NewInstallInspectorAdapter("bin").Inspect(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

func TestInstallInspectorAdapterWithoutBinDir(t *testing.T) {
	inst := t.TempDir()
	status, err := NewInstallInspectorAdapter("bin").Inspect(inst)
	require.NoError(t, err)
	assert.False(t, status.HasSetup)
	assert.Empty(t, status.Executables)
	assert.Equal(t, inst, status.InstDir)
}
