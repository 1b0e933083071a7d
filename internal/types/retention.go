package types

type RetentionPolicy struct {
	KeepLast int
	DryRun   bool
}

type PrunePlan struct {
	Keep   []VersionedDir
	Delete []VersionedDir
}
