package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dh-release/internal/types"
)

func TestManifestStoreLoad(t *testing.T) {
	manifest := memManifest{
		sections: map[string][]types.RawEntry{
			"dmstack": {{Name: "stack_dir", Raw: "1e3"}},
			"ccs":     {{Name: "eotest", Raw: "0.0.18"}, {Name: "count", Raw: "3"}},
		},
		order: []string{"dmstack", "ccs"},
	}
	store := NewManifestStore(manifest, DefaultSchemas(types.DefaultPolicy().Sections))

	stack, err := store.Load("versions.txt", "dmstack")
	require.NoError(t, err)
	value, ok := stack.Get("stack_dir")
	require.True(t, ok)
	assert.Equal(t, types.ValueKindString, value.Kind, "declared path stays text")

	ccs, err := store.Load("versions.txt", "ccs")
	require.NoError(t, err)
	assert.Equal(t, []string{"eotest", "count"}, ccs.Names())
	count, _ := ccs.Get("count")
	assert.Equal(t, int64(3), count.Any())

	sections, err := store.Sections("versions.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"dmstack", "ccs"}, sections)
}

func TestManifestStoreMissingSection(t *testing.T) {
	store := NewManifestStore(memManifest{sections: map[string][]types.RawEntry{}}, nil)

	_, err := store.Load("versions.txt", "jh")
	require.Error(t, err)
	assert.True(t, types.IsMissingSection(err))

	section, found, err := store.LoadOptional("versions.txt", "jh")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "jh", section.Name)
}
