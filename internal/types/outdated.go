package types

type OutdatedEntry struct {
	Package   PackageDescriptor
	Installed string
	Latest    string
	Outdated  bool
	Err       error
}

type OutdatedReport struct {
	Section string
	Entries []OutdatedEntry
}
