package ports

import "io/fs"

// LinkFSPort is the filesystem surface used by fetchers and the symlink
// topology manager. Paths are always absolute or relative to nothing the
// process changes; no implementation changes the working directory.
type LinkFSPort interface {
	Exists(path string) (bool, error)
	Lstat(path string) (fs.FileInfo, error)
	RealPath(path string) (string, error)
	Readlink(path string) (string, error)
	Symlink(target string, link string) error
	Remove(path string) error
	RemoveAll(path string) error
	MkdirAll(path string) error
	ReadDir(path string) ([]fs.DirEntry, error)
	Glob(pattern string) ([]string, error)
	Touch(path string) error
}
