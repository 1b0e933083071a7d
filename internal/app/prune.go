package app

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"dh-release/internal/core"
	"dh-release/internal/types"
)

// Prune removes versioned directories that no stable link targets. Only
// directories of packages that are linked or named in the manifest are
// candidates, so unrelated directories such as share/ or lib/ are never
// touched.
func (s Service) Prune(ctx context.Context, req PruneRequest) (PruneResult, error) {
	if strings.TrimSpace(req.InstDir) == "" {
		return PruneResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("install directory is required")
	}
	instDir, err := filepath.Abs(req.InstDir)
	if err != nil {
		return PruneResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid install directory").
			WithCause(err)
	}
	status, err := s.Inspector.Inspect(instDir)
	if err != nil {
		return PruneResult{}, err
	}

	manifestPackages, protect, err := s.manifestDirs(req.ManifestPath, req.Section)
	if err != nil {
		return PruneResult{}, err
	}
	known := map[string]struct{}{}
	for _, name := range manifestPackages {
		known[name] = struct{}{}
	}
	for _, link := range status.Links {
		known[link.Name] = struct{}{}
	}

	var candidates []types.VersionedDir
	for _, dir := range classifyVersionedDirs(status, manifestPackages) {
		if dir.Package == "" {
			continue
		}
		if _, ok := known[dir.Package]; !ok {
			continue
		}
		candidates = append(candidates, dir)
	}

	policy := types.RetentionPolicy{KeepLast: req.KeepLast, DryRun: req.DryRun}
	plan := BuildPrunePlan(candidates, policy, protect)
	result := PruneResult{KeepCount: len(plan.Keep), DryRun: policy.DryRun}
	for _, dir := range plan.Delete {
		result.Planned = append(result.Planned, dir.Name)
	}
	if policy.DryRun {
		result.DeleteCount = len(plan.Delete)
		return result, nil
	}
	for _, dir := range plan.Delete {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		path := filepath.Join(instDir, dir.Name)
		log.Info().Str("dir", path).Msg("removing unused version")
		if err := s.FS.RemoveAll(path); err != nil {
			return result, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to remove " + dir.Name).
				WithCause(err)
		}
		result.Deleted = append(result.Deleted, dir.Name)
	}
	result.DeleteCount = len(result.Deleted)
	return result, nil
}

// manifestDirs returns the package names of a manifest section and the
// directory names its current versions use.
func (s Service) manifestDirs(manifestPath string, section string) ([]string, map[string]struct{}, error) {
	protect := map[string]struct{}{}
	if strings.TrimSpace(manifestPath) == "" {
		return nil, protect, nil
	}
	if section == "" {
		section = s.Policy.Sections.CCS
	}
	loaded, found, err := s.manifestStore().LoadOptional(manifestPath, section)
	if err != nil || !found {
		return nil, protect, err
	}
	plan, err := core.PlanSection(loaded, s.Policy.Entries)
	if err != nil {
		return nil, protect, err
	}
	classifier := s.classifier()
	var names []string
	for _, entry := range plan.Downloads {
		protocol, name, err := classifier.Classify(entry.Package.RawName)
		if err != nil {
			continue
		}
		names = append(names, name)
		version := entry.Package.Version
		if s.isArchiveSection(section) {
			protocol = types.ProtocolArchive
		}
		switch protocol {
		case types.ProtocolVCS:
			if version == "" {
				version = s.Policy.Protocols.DefaultBranch
			}
			protect[core.VCSDirName(name, version)] = struct{}{}
		default:
			protect[core.VersionedDirName(name, version)] = struct{}{}
		}
	}
	return names, protect, nil
}
