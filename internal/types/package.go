package types

// PackageDescriptor is a manifest download entry after protocol
// classification. Name never carries the protocol prefix.
type PackageDescriptor struct {
	RawName  string
	Name     string
	Protocol Protocol
	Version  string
}

// InstallEntry is the tagged variant produced by the single
// classification pass over a manifest section. Exactly one of the
// payload groups is meaningful, selected by Kind.
type InstallEntry struct {
	Kind EntryKind
	Key  string

	// Download
	Package PackageDescriptor

	// ExposeExecutable
	Command       string
	TargetPackage string

	// CreateSymlink
	LinkName   string
	LinkTarget string
}

type InstallPlan struct {
	Section     string
	Downloads   []InstallEntry
	Executables []InstallEntry
	Symlinks    []InstallEntry
}

func (p InstallPlan) Len() int {
	return len(p.Downloads) + len(p.Executables) + len(p.Symlinks)
}

type RepoLocation struct {
	Org string
	URL string
}

// Command is an external command run on behalf of a package, usually a
// build or setup step recorded after its fetch.
type Command struct {
	Package string
	Dir     string
	Name    string
	Args    []string
	Env     []string
}
