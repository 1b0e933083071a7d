package app

import (
	"sort"

	"dh-release/internal/core"
	"dh-release/internal/types"
)

// BuildPrunePlan keeps every linked directory, every directory listed in
// protect, and the newest KeepLast directories of each package. The rest
// are planned for deletion.
func BuildPrunePlan(dirs []types.VersionedDir, policy types.RetentionPolicy, protect map[string]struct{}) types.PrunePlan {
	normalized := normalizeRetentionPolicy(policy)
	keepNames := map[string]struct{}{}
	grouped := map[string][]types.VersionedDir{}
	var order []string
	for _, dir := range dirs {
		if dir.Linked {
			keepNames[dir.Name] = struct{}{}
		}
		if _, ok := protect[dir.Name]; ok {
			keepNames[dir.Name] = struct{}{}
		}
		key := retentionGroupKey(dir)
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], dir)
	}

	if normalized.KeepLast > 0 {
		for _, key := range order {
			sorted := append([]types.VersionedDir(nil), grouped[key]...)
			scheme := core.SchemeFor(sorted[0].Protocol)
			sort.SliceStable(sorted, func(i, j int) bool {
				cmp := core.CompareVersions(scheme, sorted[i].Version, sorted[j].Version)
				if cmp != 0 {
					return cmp > 0
				}
				return sorted[i].Version > sorted[j].Version
			})
			limit := min(normalized.KeepLast, len(sorted))
			for i := 0; i < limit; i++ {
				keepNames[sorted[i].Name] = struct{}{}
			}
		}
	}

	var plan types.PrunePlan
	for _, dir := range dirs {
		if _, ok := keepNames[dir.Name]; ok {
			plan.Keep = append(plan.Keep, dir)
		} else {
			plan.Delete = append(plan.Delete, dir)
		}
	}
	return plan
}

func normalizeRetentionPolicy(policy types.RetentionPolicy) types.RetentionPolicy {
	normalized := policy
	if normalized.KeepLast < 0 {
		normalized.KeepLast = 0
	}
	return normalized
}

// retentionGroupKey separates branch clones from releases of the same
// package so keeping the last release never drops a clone.
func retentionGroupKey(dir types.VersionedDir) string {
	return string(dir.Protocol) + ":" + dir.Package
}
