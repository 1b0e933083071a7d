package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"dh-release/internal/ports"
	"dh-release/internal/types"
)

// Orchestrator turns one manifest section into installed packages and the
// links that expose them. Every download finishes before any exposure or
// plain symlink is bound.
type Orchestrator struct {
	Manifest   ManifestStore
	Classifier ports.ProtocolPort
	Fetcher    PackageFetcher
	Binder     SymlinkBinder
	FS         ports.LinkFSPort
	Entries    types.EntryPolicy
}

func (o Orchestrator) Apply(ctx context.Context, req types.ApplyRequest) (types.ApplyReport, error) {
	assert.NotEmpty(ctx, req.InstDir, "install directory must be set")
	report := types.ApplyReport{Section: req.Section, Directories: types.NewDirectoryMap()}

	section, found, err := o.Manifest.LoadOptional(req.ManifestPath, req.Section)
	if err != nil {
		return report, err
	}
	if !found {
		log.Info().Str("section", req.Section).Msg("section not in manifest, skipping")
		report.Skipped = true
		return report, nil
	}
	plan, err := PlanSection(section, o.Entries)
	if err != nil {
		return report, err
	}

	var unresolved []error
	failed := map[string]struct{}{}
	for _, entry := range plan.Downloads {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		pkg := entry.Package
		protocol, name, err := o.Classifier.Classify(pkg.RawName)
		if err == nil {
			pkg.Protocol = protocol
			pkg.Name = name
			var result FetchResult
			result, err = o.Fetcher.Fetch(ctx, req.InstDir, pkg)
			if err == nil {
				report.Fetches = append(report.Fetches, result.Record)
				report.Directories.Set(pkg.Name, result.Record.Dir)
				if result.Binding != nil {
					report.Bindings = append(report.Bindings, *result.Binding)
				}
				continue
			}
		}
		if !types.IsUnresolved(err) {
			return report, err
		}
		log.Error().Err(err).Str("package", pkg.RawName).Msg("package could not be resolved, continuing")
		report.Fetches = append(report.Fetches, types.FetchRecord{Package: pkg, Outcome: types.FetchOutcomeFailed, Err: err})
		failed[stableName(pkg)] = struct{}{}
		unresolved = append(unresolved, err)
	}

	if len(plan.Executables) > 0 {
		binDir := filepath.Join(req.InstDir, o.binDir())
		if err := o.FS.MkdirAll(binDir); err != nil {
			return report, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to create %s", binDir)).
				WithCause(err)
		}
		for _, entry := range plan.Executables {
			if _, skip := failed[entry.TargetPackage]; skip {
				log.Warn().Str("command", entry.Command).Str("package", entry.TargetPackage).Msg("not exposing command of unresolved package")
				continue
			}
			target := BootstrapTarget(entry.TargetPackage, o.binDir(), o.bootstrap())
			binding, err := o.Binder.Bind(ctx, filepath.Join(binDir, entry.Command), target)
			if err != nil {
				return report, err
			}
			report.Bindings = append(report.Bindings, binding)
		}
	}

	for _, entry := range plan.Symlinks {
		binding, err := o.Binder.Bind(ctx, filepath.Join(req.InstDir, entry.LinkName), entry.LinkTarget)
		if err != nil {
			return report, err
		}
		report.Bindings = append(report.Bindings, binding)
	}

	if len(unresolved) > 0 {
		names := make([]string, 0, len(failed))
		for _, record := range report.Failed() {
			names = append(names, record.Package.RawName)
		}
		return report, types.UnresolvedPackageError(
			strings.Join(names, ", "),
			fmt.Sprintf("%d of %d downloads in [%s]", len(unresolved), len(plan.Downloads), req.Section),
			errors.Join(unresolved...),
		)
	}
	return report, nil
}

// BootstrapTarget is the relative link target of an exposed command, as
// seen from the bin directory.
func BootstrapTarget(pkg string, binDir string, bootstrap string) string {
	return filepath.Join("..", pkg, binDir, bootstrap)
}

func (o Orchestrator) binDir() string {
	if o.Entries.BinDir != "" {
		return o.Entries.BinDir
	}
	return "bin"
}

func (o Orchestrator) bootstrap() string {
	if o.Entries.BootstrapScript != "" {
		return o.Entries.BootstrapScript
	}
	return "CCSbootstrap.sh"
}

func stableName(pkg types.PackageDescriptor) string {
	if pkg.Name != "" {
		return pkg.Name
	}
	return pkg.RawName
}
