package types

// FetchRecord is the outcome of one Download entry.
type FetchRecord struct {
	Package PackageDescriptor
	Dir     string
	Outcome FetchOutcome
	Err     error
}

// FollowUp is a build or setup command recorded after a fetch.
type FollowUp struct {
	Command Command
	Ran     bool
}

type ApplyReport struct {
	Section     string
	Skipped     bool
	Directories *DirectoryMap
	Fetches     []FetchRecord
	Bindings    []BindingResult
}

// Mutations counts bindings that changed the filesystem.
func (r ApplyReport) Mutations() int {
	count := 0
	for _, binding := range r.Bindings {
		if binding.Action != BindActionUnchanged {
			count++
		}
	}
	return count
}

func (r ApplyReport) Failed() []FetchRecord {
	var failed []FetchRecord
	for _, record := range r.Fetches {
		if record.Outcome == FetchOutcomeFailed {
			failed = append(failed, record)
		}
	}
	return failed
}

type InstallReport struct {
	InstDir    string
	Flavor     SetupFlavor
	Sections   []ApplyReport
	FollowUps  []FollowUp
	SetupPath  string
	SelfTested bool
}

type ApplyRequest struct {
	ManifestPath string
	Section      string
	InstDir      string
}
