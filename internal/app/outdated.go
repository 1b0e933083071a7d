package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"dh-release/internal/core"
	"dh-release/internal/ports"
	"dh-release/internal/types"
)

// Outdated compares every download entry of the selected sections with the
// newest released version its catalog knows. Per-package failures are
// reported on the entry and do not stop the check.
func (s Service) Outdated(ctx context.Context, req OutdatedRequest) (OutdatedResult, error) {
	if strings.TrimSpace(req.ManifestPath) == "" {
		return OutdatedResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("manifest path is required")
	}
	sections := req.Sections
	if len(sections) == 0 {
		sections = []string{s.Policy.Sections.CCS}
	}
	store := s.manifestStore()
	classifier := s.classifier()
	result := OutdatedResult{}
	for _, name := range sections {
		section, found, err := store.LoadOptional(req.ManifestPath, name)
		if err != nil {
			return result, err
		}
		if !found {
			continue
		}
		plan, err := core.PlanSection(section, s.Policy.Entries)
		if err != nil {
			return result, err
		}
		report := types.OutdatedReport{Section: name}
		for _, entry := range plan.Downloads {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			pkg := entry.Package
			protocol, stripped, err := classifier.Classify(pkg.RawName)
			if err != nil {
				report.Entries = append(report.Entries, types.OutdatedEntry{Package: pkg, Installed: pkg.Version, Err: err})
				continue
			}
			pkg.Protocol = protocol
			pkg.Name = stripped
			if s.isArchiveSection(name) {
				pkg.Protocol = types.ProtocolArchive
			}
			report.Entries = append(report.Entries, s.checkOutdated(ctx, pkg))
		}
		result.Reports = append(result.Reports, report)
	}
	return result, nil
}

func (s Service) checkOutdated(ctx context.Context, pkg types.PackageDescriptor) types.OutdatedEntry {
	entry := types.OutdatedEntry{Package: pkg, Installed: pkg.Version}
	catalog := s.catalogFor(pkg.Protocol)
	if catalog == nil {
		return entry
	}
	versions, err := catalog.Versions(ctx, pkg)
	if err != nil {
		log.Debug().Err(err).Str("package", pkg.Name).Msg("release lookup failed")
		entry.Err = err
		return entry
	}
	scheme := core.SchemeFor(pkg.Protocol)
	latest, err := core.LatestRelease(scheme, versions, s.Policy.Protocols.SnapshotMarker)
	if err != nil {
		entry.Err = err
		return entry
	}
	entry.Latest = latest
	installed := strings.TrimSpace(pkg.Version)
	if installed == "" {
		return entry
	}
	if core.IsSnapshot(installed, s.Policy.Protocols.SnapshotMarker) {
		installed = strings.TrimSuffix(strings.TrimSuffix(installed, s.Policy.Protocols.SnapshotMarker), "-")
	}
	entry.Outdated = core.CompareVersions(scheme, latest, installed) > 0
	return entry
}

func (s Service) catalogFor(protocol types.Protocol) ports.ReleaseCatalogPort {
	if protocol == types.ProtocolArtifact {
		return s.ArtifactCatalog
	}
	return s.TagCatalog
}

// isArchiveSection reports whether a section is installed from source
// archives rather than through protocol classification.
func (s Service) isArchiveSection(name string) bool {
	sections := s.Policy.Sections
	return name == sections.Packages || name == sections.EupsPackages || name == sections.JobHarness
}
