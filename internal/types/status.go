package types

type LinkState string

const (
	LinkStateOK       LinkState = "ok"
	LinkStateDangling LinkState = "dangling"
)

type LinkStatus struct {
	Name   string
	Target string
	State  LinkState
}

type InstallStatus struct {
	InstDir       string
	Links         []LinkStatus
	Executables   []LinkStatus
	VersionedDirs []VersionedDir
	HasSetup      bool
}

// VersionedDir is a fetched directory named <pkg>-<version> or <pkg>_<ref>.
type VersionedDir struct {
	Name     string
	Package  string
	Version  string
	Protocol Protocol
	Linked   bool
}
