package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"dh-release/internal/core"
	"dh-release/internal/shared"
	"dh-release/internal/types"
)

func (s Service) Install(ctx context.Context, req InstallRequest) (InstallResult, error) {
	if strings.TrimSpace(req.ManifestPath) == "" {
		return InstallResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("manifest path is required")
	}
	if strings.TrimSpace(req.InstDir) == "" && strings.TrimSpace(req.CCSInstDir) == "" {
		return InstallResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("one of --inst-dir or --ccs-inst-dir is required")
	}
	manifest, err := filepath.Abs(req.ManifestPath)
	if err != nil {
		return InstallResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid manifest path").
			WithCause(err)
	}
	req.ManifestPath = manifest

	result := InstallResult{}
	if strings.TrimSpace(req.InstDir) != "" {
		report, err := s.installJobHarness(ctx, req)
		result.Reports = append(result.Reports, report)
		if err != nil {
			return result, err
		}
	}
	if strings.TrimSpace(req.CCSInstDir) != "" {
		report, err := s.installCCS(ctx, req)
		result.Reports = append(result.Reports, report)
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

func (s Service) installCCS(ctx context.Context, req InstallRequest) (types.InstallReport, error) {
	instDir, err := s.prepareInstDir(req.CCSInstDir)
	report := types.InstallReport{InstDir: instDir, Flavor: types.SetupFlavorCCS}
	if err != nil {
		return report, err
	}
	if _, err := s.Records.CopyManifest(req.ManifestPath, instDir); err != nil {
		return report, err
	}
	if req.Dev {
		if err := s.recordDevInstall(ctx, req, instDir); err != nil {
			return report, err
		}
	}

	section := req.Section
	if section == "" {
		section = s.Policy.Sections.CCS
	}
	applied, applyErr := s.orchestrator().Apply(ctx, types.ApplyRequest{
		ManifestPath: req.ManifestPath,
		Section:      section,
		InstDir:      instDir,
	})
	report.Sections = append(report.Sections, applied)
	if applyErr != nil && !types.IsUnresolved(applyErr) {
		return report, applyErr
	}
	if !req.NoSetup && !applied.Skipped {
		path, err := s.writeSetup(types.SetupLayout{
			Flavor:   types.SetupFlavorCCS,
			InstDir:  instDir,
			Packages: applied.Directories,
		})
		if err != nil {
			return report, err
		}
		report.SetupPath = path
	}
	return report, applyErr
}

// recordDevInstall leaves what is needed to re-run the same install from
// inside the install directory.
func (s Service) recordDevInstall(ctx context.Context, req InstallRequest, instDir string) error {
	args := []string{"install", "--ccs-inst-dir", instDir}
	if req.Site != "" {
		args = append(args, "--site", req.Site)
	}
	if req.Section != "" {
		args = append(args, "--section", req.Section)
	}
	args = append(args, "--dev", req.ManifestPath)
	written, err := s.Records.WriteInstallArgs(instDir, args)
	if err != nil {
		return err
	}
	if written {
		log.Info().Str("dir", instDir).Msg("recorded install arguments")
	}
	binder := s.binder()
	if _, err := binder.Bind(ctx, filepath.Join(instDir, "packageList.txt"), req.ManifestPath); err != nil {
		return err
	}
	if req.Executable != "" {
		if _, err := binder.Bind(ctx, filepath.Join(instDir, "update"), req.Executable); err != nil {
			return err
		}
	}
	return nil
}

func (s Service) installJobHarness(ctx context.Context, req InstallRequest) (types.InstallReport, error) {
	instDir, err := s.prepareInstDir(req.InstDir)
	report := types.InstallReport{InstDir: instDir, Flavor: types.SetupFlavorJobHarness}
	if err != nil {
		return report, err
	}
	if _, err := s.Records.CopyManifest(req.ManifestPath, instDir); err != nil {
		return report, err
	}
	store := s.manifestStore()
	sections := s.Policy.Sections
	jh, err := store.Load(req.ManifestPath, sections.JobHarness)
	if err != nil {
		return report, err
	}
	hjVersion := jh.Text(s.Policy.JobHarness.HarnessedJobsKey)
	if hjVersion == "" {
		return report, types.ManifestSchemaError(sections.JobHarness, []string{s.Policy.JobHarness.HarnessedJobsKey + ": required"})
	}

	run := &jobHarnessRun{service: s, ctx: ctx, req: req, instDir: instDir, report: &report}
	jhReport := types.ApplyReport{Section: sections.JobHarness, Directories: types.NewDirectoryMap()}

	for _, tool := range s.Policy.JobHarness.Tools {
		if err := run.installTool(tool); err != nil {
			return report, err
		}
	}

	for _, name := range s.Policy.JobHarness.PythonPackages {
		version := jh.Text(name)
		if version == "" {
			log.Warn().Str("package", name).Msg("no version in manifest, skipping python package")
			continue
		}
		dir, ok, err := run.fetchArchive(&jhReport, name, version)
		if err != nil {
			return report, err
		}
		if !ok {
			continue
		}
		if err := run.followUp(types.Command{
			Package: name,
			Dir:     dir,
			Name:    run.python(),
			Args:    []string{"setup.py", "install", "--prefix=" + instDir},
		}); err != nil {
			return report, err
		}
	}
	if err := run.linkModules(&jhReport); err != nil {
		return report, err
	}
	if err := run.touchLcatrInit(); err != nil {
		return report, err
	}

	hjDir, ok, err := run.fetchArchive(&jhReport, s.Policy.JobHarness.HarnessedJobsKey, hjVersion)
	if err != nil {
		return report, err
	}
	if ok {
		for _, folder := range run.folders() {
			if err := run.linkEntries(&jhReport, filepath.Join(hjDir, folder)); err != nil {
				return report, err
			}
		}
	}
	report.Sections = append(report.Sections, jhReport)

	eupsReport, err := run.installEupsPackages()
	if err != nil {
		return report, err
	}
	report.Sections = append(report.Sections, eupsReport)

	packagesReport, err := run.installPackages()
	if err != nil {
		return report, err
	}
	report.Sections = append(report.Sections, packagesReport)

	layout, err := s.jobHarnessLayout(req.ManifestPath, instDir, req.Site)
	if err != nil {
		return report, err
	}
	path, err := s.writeSetup(layout)
	if err != nil {
		return report, err
	}
	report.SetupPath = path

	if req.SelfTest {
		tested, err := run.selfTest(hjVersion)
		if err != nil {
			return report, err
		}
		report.SelfTested = tested
	}
	if len(run.unresolved) > 0 {
		return report, types.UnresolvedPackageError(
			strings.Join(run.unresolvedNames, ", "),
			fmt.Sprintf("%d packages could not be fetched", len(run.unresolved)),
			errors.Join(run.unresolved...),
		)
	}
	return report, nil
}

func (s Service) prepareInstDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid install directory").
			WithCause(err)
	}
	exists, err := s.FS.Exists(abs)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to inspect install directory").
			WithCause(err)
	}
	if !exists {
		log.Info().Str("dir", abs).Msg("creating install directory")
	}
	if err := s.FS.MkdirAll(abs); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create install directory").
			WithCause(err)
	}
	return abs, nil
}

// jobHarnessRun carries the state of one job harness install. Unresolved
// packages are collected so the remaining ones still install.
type jobHarnessRun struct {
	service         Service
	ctx             context.Context
	req             InstallRequest
	instDir         string
	report          *types.InstallReport
	unresolved      []error
	unresolvedNames []string
}

func (r *jobHarnessRun) installTool(tool types.ToolSpec) error {
	dir := filepath.Join(r.instDir, core.VersionedDirName(tool.Name, tool.Version))
	log.Info().Str("tool", tool.Name).Str("version", tool.Version).Msg("installing tool")
	if err := r.service.fetcher().FetchTarball(r.ctx, tool.URL, dir); err != nil {
		return err
	}
	for _, line := range tool.Commands {
		if err := r.followUp(types.Command{
			Package: tool.Name,
			Dir:     dir,
			Name:    "bash",
			Args:    []string{"-c", line},
			Env:     []string{"INST_DIR=" + r.instDir},
		}); err != nil {
			return err
		}
	}
	return nil
}

// fetchArchive fetches a tagged source archive. It returns false without
// an error when the package could not be resolved.
func (r *jobHarnessRun) fetchArchive(section *types.ApplyReport, name string, version string) (string, bool, error) {
	pkg := types.PackageDescriptor{RawName: name, Name: name, Protocol: types.ProtocolArchive, Version: version}
	result, err := r.service.fetcher().FetchArchive(r.ctx, r.instDir, pkg)
	if err != nil {
		if !types.IsUnresolved(err) {
			return "", false, err
		}
		log.Error().Err(err).Str("package", name).Msg("package could not be resolved, continuing")
		section.Fetches = append(section.Fetches, types.FetchRecord{Package: pkg, Outcome: types.FetchOutcomeFailed, Err: err})
		r.unresolved = append(r.unresolved, err)
		r.unresolvedNames = append(r.unresolvedNames, name)
		return "", false, nil
	}
	section.Fetches = append(section.Fetches, result.Record)
	section.Directories.Set(name, result.Record.Dir)
	return result.Record.Dir, true, nil
}

func (r *jobHarnessRun) followUp(command types.Command) error {
	followUp := types.FollowUp{Command: command}
	if r.req.SkipBuild {
		log.Info().Str("command", shared.CommandLine(command)).Msg("skipping build step")
		r.report.FollowUps = append(r.report.FollowUps, followUp)
		return nil
	}
	err := r.service.Commands.Run(r.ctx, command)
	followUp.Ran = err == nil
	r.report.FollowUps = append(r.report.FollowUps, followUp)
	return err
}

func (r *jobHarnessRun) linkModules(section *types.ApplyReport) error {
	binding, err := r.service.binder().Bind(r.ctx, filepath.Join(r.instDir, "Modules"), filepath.Join(r.instDir, "share", "modulefiles"))
	if err != nil {
		return err
	}
	section.Bindings = append(section.Bindings, binding)
	return nil
}

func (r *jobHarnessRun) touchLcatrInit() error {
	matches, err := r.service.FS.Glob(filepath.Join(r.instDir, "lib", "python*", "site-packages", "lcatr"))
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to locate lcatr package").
			WithCause(err)
	}
	if len(matches) == 0 {
		log.Warn().Str("dir", r.instDir).Msg("lcatr package not installed, not creating __init__.py")
		return nil
	}
	if err := r.service.FS.Touch(filepath.Join(matches[0], "__init__.py")); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create lcatr/__init__.py").
			WithCause(err)
	}
	return nil
}

// linkEntries binds every entry of dir into <inst>/share. A missing dir
// is logged and skipped.
func (r *jobHarnessRun) linkEntries(section *types.ApplyReport, dir string) error {
	entries, err := r.service.FS.ReadDir(dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("nothing to link into share")
		return nil
	}
	share := filepath.Join(r.instDir, "share")
	if err := r.service.FS.MkdirAll(share); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create share directory").
			WithCause(err)
	}
	for _, entry := range entries {
		binding, err := r.service.binder().Bind(r.ctx, filepath.Join(share, entry.Name()), filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}
		section.Bindings = append(section.Bindings, binding)
	}
	return nil
}

func (r *jobHarnessRun) installEupsPackages() (types.ApplyReport, error) {
	sections := r.service.Policy.Sections
	report := types.ApplyReport{Section: sections.EupsPackages, Directories: types.NewDirectoryMap()}
	store := r.service.manifestStore()
	eups, found, err := store.LoadOptional(r.req.ManifestPath, sections.EupsPackages)
	if err != nil {
		return report, err
	}
	if !found {
		report.Skipped = true
		return report, nil
	}
	stackDir, err := r.service.stackDir(r.req.ManifestPath)
	if err != nil {
		return report, err
	}
	if stackDir == "" {
		log.Warn().Msg("no stack_dir configured, eups packages are fetched but not built")
	}
	if err := r.service.FS.MkdirAll(filepath.Join(r.instDir, "eups", "ups_db")); err != nil {
		return report, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create eups database").
			WithCause(err)
	}
	for _, entry := range eups.Entries {
		version := entry.Value.String()
		dir, ok, err := r.fetchArchive(&report, entry.Name, version)
		if err != nil {
			return report, err
		}
		if !ok || stackDir == "" {
			continue
		}
		script := strings.Join([]string{
			"source " + filepath.Join(stackDir, "loadLSST.bash"),
			"export EUPS_PATH=" + filepath.Join(r.instDir, "eups") + ":${EUPS_PATH}",
			fmt.Sprintf("eups declare %s %s -r . -c", entry.Name, version),
			"setup " + entry.Name,
			r.service.Policy.JobHarness.EupsBuild,
		}, "; ")
		if err := r.followUp(types.Command{Package: entry.Name, Dir: dir, Name: "bash", Args: []string{"-c", script}}); err != nil {
			return report, err
		}
	}
	return report, nil
}

func (r *jobHarnessRun) installPackages() (types.ApplyReport, error) {
	sections := r.service.Policy.Sections
	report := types.ApplyReport{Section: sections.Packages, Directories: types.NewDirectoryMap()}
	packages, found, err := r.service.manifestStore().LoadOptional(r.req.ManifestPath, sections.Packages)
	if err != nil {
		return report, err
	}
	if !found {
		report.Skipped = true
		return report, nil
	}
	for _, entry := range packages.Entries {
		dir, ok, err := r.fetchArchive(&report, entry.Name, entry.Value.String())
		if err != nil {
			return report, err
		}
		if !ok {
			continue
		}
		jobs := filepath.Join(dir, "harnessed_jobs")
		exists, err := r.service.FS.Exists(jobs)
		if err != nil || !exists {
			continue
		}
		if err := r.linkEntries(&report, jobs); err != nil {
			return report, err
		}
	}
	return report, nil
}

func (r *jobHarnessRun) selfTest(hjVersion string) (bool, error) {
	eups, found, err := r.service.manifestStore().LoadOptional(r.req.ManifestPath, r.service.Policy.Sections.EupsPackages)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	if _, ok := eups.Get(r.service.Policy.JobHarness.SelfTestPackage); !ok {
		return false, nil
	}
	script := filepath.Join(core.VersionedDirName(r.service.Policy.JobHarness.HarnessedJobsKey, hjVersion), "tests", "setup_test.py")
	err = r.service.Commands.Run(r.ctx, types.Command{
		Dir:  r.instDir,
		Name: "bash",
		Args: []string{"-c", "source ./setup.sh; " + r.python() + " " + script},
	})
	return err == nil, err
}

func (r *jobHarnessRun) python() string {
	if strings.TrimSpace(r.req.Python) != "" {
		return r.req.Python
	}
	return "python"
}

func (r *jobHarnessRun) folders() []string {
	if len(r.req.HJFolders) > 0 {
		return r.req.HJFolders
	}
	return r.service.Policy.JobHarness.Folders
}
