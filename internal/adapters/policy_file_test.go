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

func TestPolicyFileAdapterLoadPolicy(t *testing.T) {
	t.Run("empty path yields defaults", func(t *testing.T) {
		policy, err := NewPolicyFileAdapter().LoadPolicy("")
		require.NoError(t, err)
		assert.Equal(t, types.DefaultPolicy(), policy)
		assert.True(t, policy.Sources.DiscoverOrgs)
	})

	t.Run("overlay keeps unset keys", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		content := "sources:\n  orgs: [my-org]\n  discover_orgs: false\njob_harness:\n  site: BNL\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		policy, err := NewPolicyFileAdapter().LoadPolicy(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"my-org"}, policy.Sources.Orgs)
		assert.False(t, policy.Sources.DiscoverOrgs)
		assert.Equal(t, "BNL", policy.JobHarness.Site)
		assert.Equal(t, "https://api.github.com", policy.Sources.GitHubAPI)
		assert.Equal(t, "SNAPSHOT", policy.Protocols.SnapshotMarker)
		assert.Equal(t, "ccs", policy.Sections.CCS)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewPolicyFileAdapter().LoadPolicy(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte("sources: [unterminated\n"), 0o644))
		_, err := NewPolicyFileAdapter().LoadPolicy(path)
		require.Error(t, err)
		assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
	})
}
