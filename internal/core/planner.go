package core

import (
	"fmt"
	"strings"

	"dh-release/internal/types"
)

// PlanSection partitions a manifest section into downloads, executable
// exposures and plain symlinks in one pass. Relative order inside each
// group follows the manifest. Protocols are classified later, per entry,
// so one bad name does not invalidate the plan.
func PlanSection(section types.Section, entries types.EntryPolicy) (types.InstallPlan, error) {
	plan := types.InstallPlan{Section: section.Name}
	var problems []string
	for _, entry := range section.Entries {
		value := entry.Value.String()
		switch {
		case entries.ExecutablePrefix != "" && strings.HasPrefix(entry.Name, entries.ExecutablePrefix):
			command := strings.TrimPrefix(entry.Name, entries.ExecutablePrefix)
			if command == "" || value == "" {
				problems = append(problems, fmt.Sprintf("%s: executable needs a command name and a package", entry.Name))
				continue
			}
			plan.Executables = append(plan.Executables, types.InstallEntry{
				Kind:          types.EntryKindExposeExecutable,
				Key:           entry.Name,
				Command:       command,
				TargetPackage: value,
			})
		case entries.SymlinkPrefix != "" && strings.HasPrefix(entry.Name, entries.SymlinkPrefix):
			link := strings.TrimPrefix(entry.Name, entries.SymlinkPrefix)
			if link == "" || value == "" {
				problems = append(problems, fmt.Sprintf("%s: symlink needs a link name and a target", entry.Name))
				continue
			}
			plan.Symlinks = append(plan.Symlinks, types.InstallEntry{
				Kind:       types.EntryKindCreateSymlink,
				Key:        entry.Name,
				LinkName:   link,
				LinkTarget: value,
			})
		default:
			plan.Downloads = append(plan.Downloads, types.InstallEntry{
				Kind: types.EntryKindDownload,
				Key:  entry.Name,
				Package: types.PackageDescriptor{
					RawName: entry.Name,
					Version: value,
				},
			})
		}
	}
	if len(problems) > 0 {
		return types.InstallPlan{}, types.ManifestSchemaError(section.Name, problems)
	}
	return plan, nil
}
