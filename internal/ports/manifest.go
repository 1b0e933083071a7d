package ports

import "dh-release/internal/types"

// ManifestSourcePort reads an INI manifest without interpreting values.
// Entries come back in file order.
type ManifestSourcePort interface {
	ReadSection(path string, section string) ([]types.RawEntry, error)
	Sections(path string) ([]string, error)
}
