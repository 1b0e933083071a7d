package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dh-release/internal/types"
)

func TestParseVersionedDir(t *testing.T) {
	known := []string{"eotest", "org-lsst-ccs-subsystem-archon-main", "org-lsst-ccs-subsystem-archon"}
	tests := []struct {
		name string
		want types.VersionedDir
		ok   bool
	}{
		{
			name: "eotest_0.0.18",
			want: types.VersionedDir{Name: "eotest_0.0.18", Package: "eotest", Version: "0.0.18", Protocol: types.ProtocolVCS},
			ok:   true,
		},
		{
			name: "org-lsst-ccs-subsystem-archon-main-1.0.0",
			want: types.VersionedDir{Name: "org-lsst-ccs-subsystem-archon-main-1.0.0", Package: "org-lsst-ccs-subsystem-archon-main", Version: "1.0.0", Protocol: types.ProtocolArtifact},
			ok:   true,
		},
		{
			name: "lcatr-harness-0.15.0",
			want: types.VersionedDir{Name: "lcatr-harness-0.15.0", Package: "lcatr-harness", Version: "0.15.0", Protocol: types.ProtocolArtifact},
			ok:   true,
		},
		{
			name: "harnessed_jobs_dev",
			want: types.VersionedDir{Name: "harnessed_jobs_dev", Package: "harnessed_jobs", Version: "dev", Protocol: types.ProtocolVCS},
			ok:   true,
		},
		{
			name: "share",
			want: types.VersionedDir{Name: "share"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseVersionedDir(tc.name, known)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLinkedDirNames(t *testing.T) {
	status := types.InstallStatus{Links: []types.LinkStatus{
		{Name: "eotest", Target: "eotest_0.0.18", State: types.LinkStateOK},
		{Name: "ghost", Target: "ghost-1.0", State: types.LinkStateDangling},
	}}
	assert.Equal(t, map[string]struct{}{"eotest_0.0.18": {}}, LinkedDirNames(status))
}
