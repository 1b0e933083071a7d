package types

type SymlinkBinding struct {
	Link   string
	Target string
}

type BindingResult struct {
	Binding SymlinkBinding
	Action  BindAction
}
