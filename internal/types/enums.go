package types

type Protocol string

const (
	ProtocolVCS      Protocol = "vcs"
	ProtocolArchive  Protocol = "archive"
	ProtocolArtifact Protocol = "artifact"
)

type EntryKind string

const (
	EntryKindDownload         EntryKind = "download"
	EntryKindExposeExecutable EntryKind = "executable"
	EntryKindCreateSymlink    EntryKind = "symlink"
)

type BindAction string

const (
	BindActionCreated   BindAction = "created"
	BindActionUpdated   BindAction = "updated"
	BindActionUnchanged BindAction = "unchanged"
)

type FetchOutcome string

const (
	FetchOutcomeCloned     FetchOutcome = "cloned"
	FetchOutcomePulled     FetchOutcome = "pulled"
	FetchOutcomeDownloaded FetchOutcome = "downloaded"
	FetchOutcomeSkipped    FetchOutcome = "skipped"
	FetchOutcomeFailed     FetchOutcome = "failed"
)

type ValueKind string

const (
	ValueKindNull   ValueKind = "null"
	ValueKindInt    ValueKind = "int"
	ValueKindFloat  ValueKind = "float"
	ValueKindString ValueKind = "string"
)

type SetupFlavor string

const (
	SetupFlavorJobHarness SetupFlavor = "jh"
	SetupFlavorCCS        SetupFlavor = "ccs"
)
