package adapters

import (
	"gopkg.in/ini.v1"

	"dh-release/internal/ports"
	"dh-release/internal/types"
)

// IniManifestAdapter reads manifests with ConfigParser conventions: keys
// keep their case, values keep quotes and inline '#' text, indented lines
// continue a value, and [DEFAULT] keys appear in every section.
type IniManifestAdapter struct{}

func NewIniManifestAdapter() IniManifestAdapter {
	return IniManifestAdapter{}
}

var _ ports.ManifestSourcePort = IniManifestAdapter{}

func (a IniManifestAdapter) ReadSection(path string, section string) ([]types.RawEntry, error) {
	cfg, err := loadManifest(path)
	if err != nil {
		return nil, err
	}
	if section == ini.DefaultSection || !cfg.HasSection(section) {
		return nil, types.MissingSectionError(path, section)
	}
	sec, err := cfg.GetSection(section)
	if err != nil {
		return nil, types.MissingSectionError(path, section)
	}

	own := map[string]string{}
	for _, key := range sec.Keys() {
		own[key.Name()] = key.String()
	}
	var entries []types.RawEntry
	seen := map[string]struct{}{}
	if defaults, err := cfg.GetSection(ini.DefaultSection); err == nil {
		for _, key := range defaults.Keys() {
			value := key.String()
			if override, ok := own[key.Name()]; ok {
				value = override
			}
			entries = append(entries, types.RawEntry{Name: key.Name(), Raw: value})
			seen[key.Name()] = struct{}{}
		}
	}
	for _, key := range sec.Keys() {
		if _, ok := seen[key.Name()]; ok {
			continue
		}
		entries = append(entries, types.RawEntry{Name: key.Name(), Raw: key.String()})
	}
	return entries, nil
}

func (a IniManifestAdapter) Sections(path string) ([]string, error) {
	cfg, err := loadManifest(path)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, name := range cfg.SectionStrings() {
		if name == ini.DefaultSection {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func loadManifest(path string) (*ini.File, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:        true,
		PreserveSurroundedQuote:    true,
		AllowPythonMultilineValues: true,
		SpaceBeforeInlineComment:   true,
	}, path)
	if err != nil {
		return nil, types.InvalidManifestError(path, err)
	}
	return cfg, nil
}
