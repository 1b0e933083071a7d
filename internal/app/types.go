package app

import "dh-release/internal/types"

type InstallRequest struct {
	ManifestPath string
	InstDir      string
	CCSInstDir   string
	Section      string
	Site         string
	HJFolders    []string
	Python       string
	Dev          bool
	SkipBuild    bool
	SelfTest     bool
	NoSetup      bool
	// Executable is the path the installer was invoked as; dev installs
	// link it as the update entry point.
	Executable string
}

type InstallResult struct {
	Reports []types.InstallReport
}

type SetupRequest struct {
	ManifestPath string
	InstDir      string
	Flavor       types.SetupFlavor
	Section      string
	Site         string
}

type SetupResult struct {
	Path        string
	Environment types.Environment
}

type StatusRequest struct {
	InstDir string
}

type StatusResult struct {
	Status types.InstallStatus
}

type OutdatedRequest struct {
	ManifestPath string
	Sections     []string
}

type OutdatedResult struct {
	Reports []types.OutdatedReport
}

type PruneRequest struct {
	InstDir      string
	ManifestPath string
	Section      string
	KeepLast     int
	DryRun       bool
}

type PruneResult struct {
	KeepCount   int
	DeleteCount int
	Deleted     []string
	Planned     []string
	DryRun      bool
}

type ValidateRequest struct {
	ManifestPath string
}

type ValidateResult struct {
	Sections  []string
	Entries   int
	Downloads []types.PackageDescriptor
	Problems  []string
}
