// Package testutil provides shared test helpers used across integration,
// e2e, and unit test packages.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// RepoRoot returns the absolute path to the repository root by walking
// up from the current working directory. It fails the test if the
// working directory cannot be determined.
func RepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(dir, "..", ".."))
}

// WriteManifest writes an installer manifest into a fresh temp dir and
// returns its path.
func WriteManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "versions.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// WritePolicy writes a YAML policy overlay and returns its path.
func WritePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// RequireLink asserts that path is a symlink with the given target.
func RequireLink(t *testing.T, path string, target string) {
	t.Helper()
	got, err := os.Readlink(path)
	require.NoError(t, err)
	require.Equal(t, target, got)
}
