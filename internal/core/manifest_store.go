package core

import (
	"dh-release/internal/ports"
	"dh-release/internal/types"
)

// ManifestStore loads typed manifest sections from a raw INI source.
type ManifestStore struct {
	source  ports.ManifestSourcePort
	schemas map[string]types.SectionSchema
}

func NewManifestStore(source ports.ManifestSourcePort, schemas map[string]types.SectionSchema) ManifestStore {
	return ManifestStore{source: source, schemas: schemas}
}

// DefaultSchemas declares the path-valued keys of the typed sections so
// that a value like "1e3" is never turned into a number.
func DefaultSchemas(sections types.SectionPolicy) map[string]types.SectionSchema {
	return map[string]types.SectionSchema{
		sections.Stack: {
			"stack_dir": types.ValueKindString,
		},
		sections.Datacat: {
			"datacatdir":     types.ValueKindString,
			"datacat_config": types.ValueKindString,
		},
	}
}

func (s ManifestStore) Load(path string, section string) (types.Section, error) {
	raw, err := s.source.ReadSection(path, section)
	if err != nil {
		return types.Section{}, err
	}
	loaded := types.Section{Name: section, Entries: CastEntries(raw)}
	return ApplySchema(loaded, s.schemas[section])
}

// LoadOptional loads a section and reports false instead of an error when
// the section is absent.
func (s ManifestStore) LoadOptional(path string, section string) (types.Section, bool, error) {
	loaded, err := s.Load(path, section)
	if err != nil {
		if types.IsMissingSection(err) {
			return types.Section{Name: section}, false, nil
		}
		return types.Section{}, false, err
	}
	return loaded, true, nil
}

func (s ManifestStore) Sections(path string) ([]string, error) {
	return s.source.Sections(path)
}
