package types

// Policy is the enumerated table that configures one canonical installer.
// DefaultPolicy reproduces the historical behaviour; a YAML policy file
// can override any part of it.
type Policy struct {
	Protocols  ProtocolPolicy   `yaml:"protocols"`
	Entries    EntryPolicy      `yaml:"entries"`
	Sources    SourcePolicy     `yaml:"sources"`
	Sections   SectionPolicy    `yaml:"sections"`
	JobHarness JobHarnessPolicy `yaml:"job_harness"`
}

type ProtocolPolicy struct {
	// Prefixes are checked in order; the first match wins and is stripped.
	Prefixes []ProtocolPrefix `yaml:"prefixes"`
	// Fallback applies to names without an explicit prefix. Patterns are
	// exact names, "prefix*" or "*".
	Fallback       []ProtocolPattern `yaml:"fallback"`
	Default        Protocol          `yaml:"default"`
	SnapshotMarker string            `yaml:"snapshot_marker"`
	DefaultBranch  string            `yaml:"default_branch"`
}

type ProtocolPrefix struct {
	Prefix   string   `yaml:"prefix"`
	Protocol Protocol `yaml:"protocol"`
}

type ProtocolPattern struct {
	Pattern  string   `yaml:"pattern"`
	Protocol Protocol `yaml:"protocol"`
}

type EntryPolicy struct {
	ExecutablePrefix string `yaml:"executable_prefix"`
	SymlinkPrefix    string `yaml:"symlink_prefix"`
	BinDir           string `yaml:"bin_dir"`
	BootstrapScript  string `yaml:"bootstrap_script"`
}

type SourcePolicy struct {
	GitHubURL    string     `yaml:"github_url"`
	GitHubAPI    string     `yaml:"github_api"`
	GitHubToken  string     `yaml:"github_token,omitempty"`
	Orgs         []string   `yaml:"orgs"`
	OrgRoutes    []OrgRoute `yaml:"org_routes,omitempty"`
	DiscoverOrgs bool       `yaml:"discover_orgs"`
	NexusURL     string     `yaml:"nexus_url"`
	ArtifactKind string     `yaml:"artifact_classifier"`
}

// OrgRoute pins package names matching Pattern to a single organisation.
type OrgRoute struct {
	Pattern string `yaml:"pattern"`
	Org     string `yaml:"org"`
}

type SectionPolicy struct {
	JobHarness   string `yaml:"jh"`
	Packages     string `yaml:"packages"`
	EupsPackages string `yaml:"eups_packages"`
	Stack        string `yaml:"dmstack"`
	Datacat      string `yaml:"datacat"`
	CCS          string `yaml:"ccs"`
}

type JobHarnessPolicy struct {
	Site             string     `yaml:"site"`
	HarnessedJobsKey string     `yaml:"harnessed_jobs_key"`
	PythonPackages   []string   `yaml:"python_packages"`
	Folders          []string   `yaml:"folders"`
	Tools            []ToolSpec `yaml:"tools"`
	ModulesVersion   string     `yaml:"modules_version"`
	EupsBuild        string     `yaml:"eups_build"`
	SelfTestPackage  string     `yaml:"self_test_package"`
	ExtraExports     []string   `yaml:"extra_exports,omitempty"`
	Prompt           string     `yaml:"prompt"`
}

// ToolSpec is a tarball installed from a fixed URL and built in place by
// shell commands run with INST_DIR in the environment.
type ToolSpec struct {
	Name     string   `yaml:"name"`
	Version  string   `yaml:"version"`
	URL      string   `yaml:"url"`
	Commands []string `yaml:"commands"`
}

func DefaultPolicy() Policy {
	return Policy{
		Protocols: ProtocolPolicy{
			Prefixes: []ProtocolPrefix{
				{Prefix: "github.", Protocol: ProtocolVCS},
				{Prefix: "nexus.", Protocol: ProtocolArtifact},
			},
			Fallback: []ProtocolPattern{
				{Pattern: "org-lsst*", Protocol: ProtocolArtifact},
			},
			Default:        ProtocolVCS,
			SnapshotMarker: "SNAPSHOT",
			DefaultBranch:  "master",
		},
		Entries: EntryPolicy{
			ExecutablePrefix: "executable.",
			SymlinkPrefix:    "symlink.",
			BinDir:           "bin",
			BootstrapScript:  "CCSbootstrap.sh",
		},
		Sources: SourcePolicy{
			GitHubURL: "https://github.com",
			GitHubAPI: "https://api.github.com",
			Orgs:      []string{"lsst-camera-dh", "lsst-camera-electronics"},
			OrgRoutes: []OrgRoute{
				{Pattern: "REB_*", Org: "lsst-camera-electronics"},
			},
			DiscoverOrgs: true,
			NexusURL:     "http://repo-nexus.lsst.org/nexus/repository/ccs-maven2-public/org/lsst",
			ArtifactKind: "dist",
		},
		Sections: SectionPolicy{
			JobHarness:   "jh",
			Packages:     "packages",
			EupsPackages: "eups_packages",
			Stack:        "dmstack",
			Datacat:      "datacat",
			CCS:          "ccs",
		},
		JobHarness: JobHarnessPolicy{
			Site:             "SLAC",
			HarnessedJobsKey: "harnessed-jobs",
			PythonPackages:   []string{"lcatr-harness", "lcatr-schema", "lcatr-modulefiles"},
			Folders:          []string{"SLAC"},
			Tools: []ToolSpec{{
				Name:     "modules",
				Version:  "3.2.10",
				URL:      "http://sourceforge.net/projects/modules/files/Modules/modules-3.2.10/modules-3.2.10.tar.gz",
				Commands: []string{"./configure --prefix=${INST_DIR}", "make", "make install"},
			}},
			ModulesVersion:  "3.2.10",
			EupsBuild:       "scons opt=3",
			SelfTestPackage: "eotest",
			ExtraExports:    []string{"OMP_NUM_THREADS=1"},
			Prompt:          "[jh]$ ",
		},
	}
}
