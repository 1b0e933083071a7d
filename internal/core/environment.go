package core

import (
	"path/filepath"
	"strings"

	"dh-release/internal/ports"
	"dh-release/internal/shared"
	"dh-release/internal/types"
)

// ComposeEnvironment builds the ordered statements of setup.sh. The probe
// is only asked whether optional directories exist.
func ComposeEnvironment(layout types.SetupLayout, probe ports.ProbePort) types.Environment {
	if layout.Flavor == types.SetupFlavorCCS {
		return composeCCS(layout)
	}
	return composeJobHarness(layout, probe)
}

func composeCCS(layout types.SetupLayout) types.Environment {
	env := types.Environment{}
	env.Statements = append(env.Statements, export("INST_DIR", layout.InstDir))
	for _, name := range layout.Packages.Names() {
		env.Statements = append(env.Statements, export(shared.PackageEnvVar(name), "${INST_DIR}/"+name))
	}
	env.Statements = append(env.Statements, export("PATH", "${INST_DIR}/bin:${PATH}"))
	return env
}

func composeJobHarness(layout types.SetupLayout, probe ports.ProbePort) types.Environment {
	env := types.Environment{}
	add := func(statements ...types.EnvStatement) {
		env.Statements = append(env.Statements, statements...)
	}
	add(export("INST_DIR", layout.InstDir))
	if layout.StackDir != "" {
		add(
			export("STACK_DIR", layout.StackDir),
			source("${STACK_DIR}/loadLSST.bash"),
			export("EUPS_PATH", "${INST_DIR}/eups:${EUPS_PATH}"),
			raw("setup obs_lsst"),
		)
	}
	for _, pkg := range layout.EupsPackages {
		add(raw("setup " + pkg))
	}

	names := layout.Packages.Names()
	if layout.HarnessedJobsDir != "" {
		var binPath []string
		for _, name := range names {
			dir, _ := layout.Packages.Get(name)
			if probe.DirExists(filepath.Join(dir, "bin")) {
				binPath = append(binPath, "${INST_DIR}/"+filepath.Base(dir)+"/bin")
			}
		}
		binPath = append(binPath, "${INST_DIR}/bin", "${PATH}")
		add(
			export("HARNESSEDJOBSDIR", "${INST_DIR}/"+filepath.Base(layout.HarnessedJobsDir)),
			export("VIRTUAL_ENV", "${INST_DIR}"),
		)
		if layout.ModulesVersion != "" {
			add(source("${INST_DIR}/Modules/" + layout.ModulesVersion + "/init/bash"))
		}
		add(export("PATH", strings.Join(binPath, ":")))
		if layout.Site != "" {
			add(export("SITENAME", layout.Site))
		}
	}

	for _, name := range names {
		dir, _ := layout.Packages.Get(name)
		add(export(shared.PackageEnvVar(name), "${INST_DIR}/"+filepath.Base(dir)))
	}

	var schemas []string
	for _, name := range names {
		dir, _ := layout.Packages.Get(name)
		if probe.DirExists(filepath.Join(dir, "schemas")) {
			schemas = append(schemas, "${"+shared.PackageEnvVar(name)+"}/schemas")
		}
	}
	if layout.HarnessedJobsDir != "" {
		schemas = append(schemas, "${HARNESSEDJOBSDIR}/schemas")
	}
	schemas = append(schemas, "${LCATR_SCHEMA_PATH}")
	add(export("LCATR_SCHEMA_PATH", strings.Join(schemas, ":")))

	var pythonPath []string
	for _, name := range names {
		pythonPath = append(pythonPath, "${"+shared.PackageEnvVar(name)+"}/python")
	}
	if layout.DatacatDir != "" {
		pythonPath = append(pythonPath, "${DATACATDIR}")
		add(
			export("DATACATDIR", filepath.Join(layout.DatacatDir, "lib")),
			export("DATACAT_CONFIG", layout.DatacatConfig),
		)
	}
	if layout.HarnessedJobsDir != "" {
		pythonPath = append(pythonPath, "${HARNESSEDJOBSDIR}/python")
	}
	if sitePackages := SitePackagesPath(layout.InstDir, probe); sitePackages != "" {
		pythonPath = append(pythonPath, sitePackages)
	}
	pythonPath = append(pythonPath, "${PYTHONPATH}")
	add(export("PYTHONPATH", strings.Join(pythonPath, ":")))

	for _, assignment := range layout.ExtraExports {
		name, value, ok := strings.Cut(assignment, "=")
		if ok && name != "" {
			add(export(name, value))
		}
	}
	if layout.Prompt != "" {
		add(raw(`PS1="` + layout.Prompt + `"`))
	}
	return env
}

// SitePackagesPath returns the first lib/python*/site-packages directory
// under the install dir, expressed relative to ${INST_DIR}.
func SitePackagesPath(instDir string, probe ports.ProbePort) string {
	matches := probe.Glob(filepath.Join(instDir, "lib", "python*", "site-packages"))
	if len(matches) == 0 {
		return ""
	}
	rel, err := filepath.Rel(instDir, matches[0])
	if err != nil {
		return ""
	}
	return "${INST_DIR}/" + filepath.ToSlash(rel)
}

func export(name string, value string) types.EnvStatement {
	return types.EnvStatement{Kind: types.EnvStatementExport, Name: name, Value: value}
}

func source(path string) types.EnvStatement {
	return types.EnvStatement{Kind: types.EnvStatementSource, Value: path}
}

func raw(line string) types.EnvStatement {
	return types.EnvStatement{Kind: types.EnvStatementRaw, Value: line}
}
