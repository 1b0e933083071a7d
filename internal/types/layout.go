package types

// DirectoryMap maps stable package names to absolute versioned
// directories. It keeps insertion order; re-adding a name moves nothing
// and only replaces the directory.
type DirectoryMap struct {
	names []string
	dirs  map[string]string
}

func NewDirectoryMap() *DirectoryMap {
	return &DirectoryMap{dirs: map[string]string{}}
}

func (m *DirectoryMap) Set(name string, dir string) {
	if _, ok := m.dirs[name]; !ok {
		m.names = append(m.names, name)
	}
	m.dirs[name] = dir
}

func (m *DirectoryMap) Get(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	dir, ok := m.dirs[name]
	return dir, ok
}

func (m *DirectoryMap) Names() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.names...)
}

func (m *DirectoryMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.names)
}

// SetupLayout is everything the environment composer needs to render a
// setup script. Optional parts are left zero when not configured.
type SetupLayout struct {
	Flavor           SetupFlavor
	InstDir          string
	Site             string
	Packages         *DirectoryMap
	StackDir         string
	EupsPackages     []string
	HarnessedJobsDir string
	ModulesVersion   string
	DatacatDir       string
	DatacatConfig    string
	SitePackagesDir  string
	ExtraExports     []string
	Prompt           string
}

type EnvStatementKind string

const (
	EnvStatementExport EnvStatementKind = "export"
	EnvStatementSource EnvStatementKind = "source"
	EnvStatementRaw    EnvStatementKind = "raw"
)

type EnvStatement struct {
	Kind  EnvStatementKind
	Name  string
	Value string
}

type Environment struct {
	Statements []EnvStatement
}

func (e Environment) Lookup(name string) (string, bool) {
	for _, statement := range e.Statements {
		if statement.Kind == EnvStatementExport && statement.Name == name {
			return statement.Value, true
		}
	}
	return "", false
}
