package ports

import "dh-release/internal/types"

type SetupWriterPort interface {
	WriteSetup(path string, env types.Environment) error
}

// ProbePort answers existence questions for the environment composer.
type ProbePort interface {
	DirExists(path string) bool
	Glob(pattern string) []string
}
