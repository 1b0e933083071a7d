package core

import (
	"path/filepath"
	"strings"

	"dh-release/internal/types"
)

// ParseVersionedDir splits a directory name into package and version.
// Known package names are tried first, longest match wins, so that
// dashes inside names are not mistaken for the version separator.
// Without a known name, the last dash followed by a digit separates a
// release and the last underscore separates a branch clone.
func ParseVersionedDir(name string, known []string) (types.VersionedDir, bool) {
	dir := types.VersionedDir{Name: name}
	best := ""
	for _, pkg := range known {
		if len(pkg) <= len(best) || len(name) <= len(pkg)+1 || !strings.HasPrefix(name, pkg) {
			continue
		}
		switch name[len(pkg)] {
		case '-', '_':
			best = pkg
		}
	}
	if best != "" {
		dir.Package = best
		dir.Version = name[len(best)+1:]
		dir.Protocol = protocolForSeparator(name[len(best)])
		return dir, true
	}
	if idx := lastReleaseDash(name); idx > 0 {
		dir.Package = name[:idx]
		dir.Version = name[idx+1:]
		dir.Protocol = types.ProtocolArtifact
		return dir, true
	}
	if idx := strings.LastIndex(name, "_"); idx > 0 && idx < len(name)-1 {
		dir.Package = name[:idx]
		dir.Version = name[idx+1:]
		dir.Protocol = types.ProtocolVCS
		return dir, true
	}
	return dir, false
}

func protocolForSeparator(sep byte) types.Protocol {
	if sep == '_' {
		return types.ProtocolVCS
	}
	return types.ProtocolArtifact
}

func lastReleaseDash(name string) int {
	for idx := len(name) - 2; idx > 0; idx-- {
		if name[idx] == '-' && name[idx+1] >= '0' && name[idx+1] <= '9' {
			return idx
		}
	}
	return -1
}

// LinkedDirNames returns the base names of every directory a stable link
// resolves to.
func LinkedDirNames(status types.InstallStatus) map[string]struct{} {
	linked := map[string]struct{}{}
	for _, link := range status.Links {
		if link.State != types.LinkStateOK {
			continue
		}
		linked[filepath.Base(link.Target)] = struct{}{}
	}
	return linked
}
