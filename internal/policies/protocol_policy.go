package policies

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"dh-release/internal/types"
)

// ProtocolTable is the compiled form of types.ProtocolPolicy.
type ProtocolTable struct {
	prefixes []types.ProtocolPrefix
	exact    map[string]int
	patterns []prefixPattern
	wildcard int
	fallback []types.ProtocolPattern
	deflt    types.Protocol
}

func NewProtocolTable(policy types.ProtocolPolicy) ProtocolTable {
	table := ProtocolTable{
		prefixes: policy.Prefixes,
		fallback: policy.Fallback,
		deflt:    policy.Default,
		wildcard: -1,
	}
	if table.deflt == "" {
		table.deflt = types.ProtocolVCS
	}
	table.compile()
	return table
}

// Classify returns the protocol of a manifest entry name and the name
// with the matched prefix removed. Explicit prefixes win over the
// fallback patterns; only a leading prefix is stripped.
func (t ProtocolTable) Classify(name string) (types.Protocol, string, error) {
	trimmed := strings.TrimSpace(name)
	for _, prefix := range t.prefixes {
		if prefix.Prefix == "" || !strings.HasPrefix(trimmed, prefix.Prefix) {
			continue
		}
		stripped := strings.TrimPrefix(trimmed, prefix.Prefix)
		if stripped == "" {
			return "", "", unresolvedName(name, "empty name after prefix "+prefix.Prefix)
		}
		return prefix.Protocol, stripped, nil
	}
	if trimmed == "" {
		return "", "", unresolvedName(name, "empty name")
	}
	return t.fallbackProtocol(trimmed), trimmed, nil
}

func (t ProtocolTable) fallbackProtocol(name string) types.Protocol {
	best := -1
	if idx, ok := t.exact[name]; ok {
		best = minIndex(best, idx)
	}
	for _, entry := range t.patterns {
		if strings.HasPrefix(name, entry.prefix) {
			best = minIndex(best, entry.index)
		}
	}
	if t.wildcard >= 0 {
		best = minIndex(best, t.wildcard)
	}
	if best >= 0 {
		return t.fallback[best].Protocol
	}
	return t.deflt
}

type prefixPattern struct {
	prefix string
	index  int
}

type patternKind int

const (
	patternExact patternKind = iota
	patternPrefix
	patternWildcard
	patternInvalid
)

func (t *ProtocolTable) compile() {
	t.exact = map[string]int{}
	for idx, entry := range t.fallback {
		name, kind := parseNamePattern(entry.Pattern)
		switch kind {
		case patternWildcard:
			if t.wildcard < 0 {
				t.wildcard = idx
			}
		case patternExact:
			if _, ok := t.exact[name]; !ok {
				t.exact[name] = idx
			}
		case patternPrefix:
			t.patterns = append(t.patterns, prefixPattern{prefix: name, index: idx})
		}
	}
}

func parseNamePattern(value string) (string, patternKind) {
	pattern := strings.TrimSpace(value)
	if pattern == "" {
		return "", patternInvalid
	}
	if pattern == "*" {
		return "", patternWildcard
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.TrimSuffix(pattern, "*"), patternPrefix
	}
	return pattern, patternExact
}

func minIndex(current int, candidate int) int {
	if candidate < 0 {
		return current
	}
	if current < 0 || candidate < current {
		return candidate
	}
	return current
}

func unresolvedName(name string, detail string) error {
	return types.UnresolvedPackageError(name, detail, nil)
}

// ValidateProtocolPolicy rejects tables that could not classify anything
// sensibly.
func ValidateProtocolPolicy(policy types.ProtocolPolicy) error {
	seen := map[string]struct{}{}
	for _, prefix := range policy.Prefixes {
		if strings.TrimSpace(prefix.Prefix) == "" {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("protocol prefix must not be empty")
		}
		if _, ok := seen[prefix.Prefix]; ok {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("duplicate protocol prefix: %s", prefix.Prefix))
		}
		seen[prefix.Prefix] = struct{}{}
		if !knownProtocol(prefix.Protocol) {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("unknown protocol for prefix %s: %s", prefix.Prefix, prefix.Protocol))
		}
	}
	for _, pattern := range policy.Fallback {
		if _, kind := parseNamePattern(pattern.Pattern); kind == patternInvalid {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("fallback pattern must not be empty")
		}
		if !knownProtocol(pattern.Protocol) {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("unknown protocol for pattern %s: %s", pattern.Pattern, pattern.Protocol))
		}
	}
	if policy.Default != "" && !knownProtocol(policy.Default) {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unknown default protocol: %s", policy.Default))
	}
	return nil
}

func knownProtocol(protocol types.Protocol) bool {
	switch protocol {
	case types.ProtocolVCS, types.ProtocolArchive, types.ProtocolArtifact:
		return true
	default:
		return false
	}
}
