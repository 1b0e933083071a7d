package app

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"dh-release/internal/core"
	"dh-release/internal/types"
)

// Setup re-renders setup.sh from the manifest without fetching anything.
func (s Service) Setup(ctx context.Context, req SetupRequest) (SetupResult, error) {
	if strings.TrimSpace(req.ManifestPath) == "" || strings.TrimSpace(req.InstDir) == "" {
		return SetupResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("manifest path and install directory are required")
	}
	instDir, err := filepath.Abs(req.InstDir)
	if err != nil {
		return SetupResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid install directory").
			WithCause(err)
	}
	var layout types.SetupLayout
	switch req.Flavor {
	case types.SetupFlavorCCS:
		layout, err = s.ccsLayout(req.ManifestPath, req.Section, instDir)
	case types.SetupFlavorJobHarness, "":
		layout, err = s.jobHarnessLayout(req.ManifestPath, instDir, req.Site)
	default:
		return SetupResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unknown setup flavor: " + string(req.Flavor))
	}
	if err != nil {
		return SetupResult{}, err
	}
	env := core.ComposeEnvironment(layout, s.Probe)
	path := filepath.Join(instDir, "setup.sh")
	if err := s.SetupWriter.WriteSetup(path, env); err != nil {
		return SetupResult{}, err
	}
	return SetupResult{Path: path, Environment: env}, nil
}

func (s Service) writeSetup(layout types.SetupLayout) (string, error) {
	env := core.ComposeEnvironment(layout, s.Probe)
	path := filepath.Join(layout.InstDir, "setup.sh")
	if err := s.SetupWriter.WriteSetup(path, env); err != nil {
		return "", err
	}
	return path, nil
}

// jobHarnessLayout derives the setup inputs of a job harness install from
// the manifest alone; directory names follow the archive layout.
func (s Service) jobHarnessLayout(manifestPath string, instDir string, site string) (types.SetupLayout, error) {
	store := s.manifestStore()
	sections := s.Policy.Sections
	jhPolicy := s.Policy.JobHarness
	if site == "" {
		site = jhPolicy.Site
	}
	layout := types.SetupLayout{
		Flavor:         types.SetupFlavorJobHarness,
		InstDir:        instDir,
		Site:           site,
		Packages:       types.NewDirectoryMap(),
		ModulesVersion: jhPolicy.ModulesVersion,
		ExtraExports:   jhPolicy.ExtraExports,
		Prompt:         jhPolicy.Prompt,
	}

	jh, found, err := store.LoadOptional(manifestPath, sections.JobHarness)
	if err != nil {
		return layout, err
	}
	if found {
		if version := jh.Text(jhPolicy.HarnessedJobsKey); version != "" {
			layout.HarnessedJobsDir = filepath.Join(instDir, core.VersionedDirName(jhPolicy.HarnessedJobsKey, version))
		}
	}

	stackDir, err := s.stackDir(manifestPath)
	if err != nil {
		return layout, err
	}
	layout.StackDir = stackDir

	eups, found, err := store.LoadOptional(manifestPath, sections.EupsPackages)
	if err != nil {
		return layout, err
	}
	if found {
		layout.EupsPackages = eups.Names()
	}

	packages, found, err := store.LoadOptional(manifestPath, sections.Packages)
	if err != nil {
		return layout, err
	}
	if found {
		for _, entry := range packages.Entries {
			layout.Packages.Set(entry.Name, filepath.Join(instDir, core.VersionedDirName(entry.Name, entry.Value.String())))
		}
	}

	datacat, found, err := store.LoadOptional(manifestPath, sections.Datacat)
	if err != nil {
		return layout, err
	}
	if found {
		layout.DatacatDir = datacat.Text("datacatdir")
		layout.DatacatConfig = datacat.Text("datacat_config")
	}
	return layout, nil
}

// ccsLayout lists the stable names a CCS section produces.
func (s Service) ccsLayout(manifestPath string, section string, instDir string) (types.SetupLayout, error) {
	if section == "" {
		section = s.Policy.Sections.CCS
	}
	layout := types.SetupLayout{Flavor: types.SetupFlavorCCS, InstDir: instDir, Packages: types.NewDirectoryMap()}
	loaded, found, err := s.manifestStore().LoadOptional(manifestPath, section)
	if err != nil || !found {
		return layout, err
	}
	plan, err := core.PlanSection(loaded, s.Policy.Entries)
	if err != nil {
		return layout, err
	}
	classifier := s.classifier()
	for _, entry := range plan.Downloads {
		_, name, err := classifier.Classify(entry.Package.RawName)
		if err != nil {
			return layout, err
		}
		layout.Packages.Set(name, filepath.Join(instDir, name))
	}
	return layout, nil
}

func (s Service) stackDir(manifestPath string) (string, error) {
	stack, found, err := s.manifestStore().LoadOptional(manifestPath, s.Policy.Sections.Stack)
	if err != nil || !found {
		return "", err
	}
	return strings.TrimRight(stack.Text("stack_dir"), string(filepath.Separator)), nil
}
