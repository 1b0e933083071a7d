package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"
	debversion "github.com/knqyf263/go-deb-version"

	"dh-release/internal/types"
)

// VersionScheme selects the ordering used for a protocol's versions:
// repository tags follow PEP 440, distribution artifacts follow Debian
// ordering, which copes with Maven style qualifiers such as -SNAPSHOT.
type VersionScheme string

const (
	VersionSchemePEP440 VersionScheme = "pep440"
	VersionSchemeDebian VersionScheme = "deb"
)

func SchemeFor(protocol types.Protocol) VersionScheme {
	if protocol == types.ProtocolArtifact {
		return VersionSchemeDebian
	}
	return VersionSchemePEP440
}

// versionCache memoizes parsed version objects to avoid repeated parsing
// while sorting.
type versionCache struct {
	scheme VersionScheme
	deb    map[string]debversion.Version
	pep    map[string]pep440.Version
}

func newVersionCache(scheme VersionScheme) *versionCache {
	return &versionCache{
		scheme: scheme,
		deb:    map[string]debversion.Version{},
		pep:    map[string]pep440.Version{},
	}
}

func (c *versionCache) debVersion(value string) (debversion.Version, error) {
	if parsed, ok := c.deb[value]; ok {
		return parsed, nil
	}
	parsed, err := debversion.NewVersion(value)
	if err != nil {
		return debversion.Version{}, err
	}
	c.deb[value] = parsed
	return parsed, nil
}

func (c *versionCache) pepVersion(value string) (pep440.Version, error) {
	if parsed, ok := c.pep[value]; ok {
		return parsed, nil
	}
	parsed, err := pep440.Parse(value)
	if err != nil {
		return pep440.Version{}, err
	}
	c.pep[value] = parsed
	return parsed, nil
}

// valid reports whether value parses under the cache's scheme.
func (c *versionCache) valid(value string) bool {
	switch c.scheme {
	case VersionSchemeDebian:
		_, err := c.debVersion(value)
		return err == nil
	default:
		_, err := c.pepVersion(value)
		return err == nil
	}
}

// compare returns -1, 0, or 1 comparing two version strings. Returns 0 on
// parse errors.
func (c *versionCache) compare(a string, b string) int {
	switch c.scheme {
	case VersionSchemeDebian:
		v1, err := c.debVersion(a)
		if err != nil {
			return 0
		}
		v2, err := c.debVersion(b)
		if err != nil {
			return 0
		}
		return v1.Compare(v2)
	default:
		v1, err := c.pepVersion(a)
		if err != nil {
			return 0
		}
		v2, err := c.pepVersion(b)
		if err != nil {
			return 0
		}
		return v1.Compare(v2)
	}
}

// CompareVersions orders two versions under a scheme.
func CompareVersions(scheme VersionScheme, a string, b string) int {
	return newVersionCache(scheme).compare(a, b)
}

// LatestRelease picks the highest parseable version that is not a
// snapshot. Unparseable tags such as branch names are ignored.
func LatestRelease(scheme VersionScheme, versions []string, snapshotMarker string) (string, error) {
	cache := newVersionCache(scheme)
	var candidates []string
	for _, version := range versions {
		trimmed := strings.TrimSpace(version)
		if trimmed == "" || IsSnapshot(trimmed, snapshotMarker) {
			continue
		}
		if !cache.valid(trimmed) {
			continue
		}
		candidates = append(candidates, trimmed)
	}
	if len(candidates) == 0 {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("no released versions among %d candidates", len(versions)))
	}
	SortVersionsDesc(scheme, candidates)
	return candidates[0], nil
}

// SortVersionsDesc sorts newest first. Versions that do not parse keep a
// stable position relative to each other.
func SortVersionsDesc(scheme VersionScheme, versions []string) {
	cache := newVersionCache(scheme)
	sort.SliceStable(versions, func(i, j int) bool {
		return cache.compare(versions[i], versions[j]) > 0
	})
}
