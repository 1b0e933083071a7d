package ports

import "dh-release/internal/types"

type PolicySourcePort interface {
	LoadPolicy(path string) (types.Policy, error)
}

// ProtocolPort classifies a manifest entry name into a protocol and the
// name with its protocol prefix removed.
type ProtocolPort interface {
	Classify(name string) (types.Protocol, string, error)
}
