package adapters

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dh-release/internal/types"
)

func TestSetupFileAdapterWriteSetup(t *testing.T) {
	fs := afero.NewMemMapFs()
	adapter := NewSetupFileAdapter(fs)
	env := types.Environment{Statements: []types.EnvStatement{
		{Kind: types.EnvStatementExport, Name: "INST_DIR", Value: "/opt/ccs"},
		{Kind: types.EnvStatementSource, Value: "${STACK_DIR}/loadLSST.bash"},
		{Kind: types.EnvStatementRaw, Value: "setup eotest"},
	}}

	require.NoError(t, adapter.WriteSetup("/opt/ccs/setup.sh", env))
	data, err := afero.ReadFile(fs, "/opt/ccs/setup.sh")
	require.NoError(t, err)
	assert.Equal(t, "export INST_DIR=/opt/ccs\nsource ${STACK_DIR}/loadLSST.bash\nsetup eotest\n", string(data))

	require.NoError(t, adapter.WriteSetup("/opt/ccs/setup.sh", types.Environment{}))
	data, err = afero.ReadFile(fs, "/opt/ccs/setup.sh")
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestSetupFileAdapterWriteSetupReadOnly(t *testing.T) {
	adapter := NewSetupFileAdapter(afero.NewReadOnlyFs(afero.NewMemMapFs()))
	err := adapter.WriteSetup("/opt/ccs/setup.sh", types.Environment{})
	require.Error(t, err)
}

func TestSetupFileAdapterProbes(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/inst/harnessed-jobs-0.4.0/SLAC/ready_acq", 0o755))
	require.NoError(t, fs.MkdirAll("/inst/harnessed-jobs-0.4.0/BNL/other", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/inst/setup.sh", nil, 0o644))
	adapter := NewSetupFileAdapter(fs)

	assert.True(t, adapter.DirExists("/inst/harnessed-jobs-0.4.0"))
	assert.False(t, adapter.DirExists("/inst/setup.sh"))
	assert.False(t, adapter.DirExists("/inst/absent"))
	assert.Equal(t, []string{"/inst/harnessed-jobs-0.4.0/SLAC/ready_acq"}, adapter.Glob("/inst/harnessed-jobs-0.4.0/SLAC/*"))
	assert.Nil(t, adapter.Glob("/inst/["))
}
