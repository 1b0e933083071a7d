package adapters

import (
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"dh-release/internal/ports"
	"dh-release/internal/types"
)

// PolicyFileAdapter overlays a YAML policy file on the built-in defaults.
// Keys absent from the file keep their default; lists present in the file
// replace the default list.
type PolicyFileAdapter struct{}

func NewPolicyFileAdapter() PolicyFileAdapter {
	return PolicyFileAdapter{}
}

var _ ports.PolicySourcePort = PolicyFileAdapter{}

func (a PolicyFileAdapter) LoadPolicy(path string) (types.Policy, error) {
	policy := types.DefaultPolicy()
	if strings.TrimSpace(path) == "" {
		return policy, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Policy{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to read policy file").
			WithCause(err)
	}
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return types.Policy{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid policy file").
			WithCause(err)
	}
	return policy, nil
}
