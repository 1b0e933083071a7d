package adapters

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"dh-release/internal/ports"
)

const maxLinkHops = 255

// OSLinkFSAdapter is the real filesystem. It never changes the working
// directory; relative paths are resolved against it once, by the OS.
type OSLinkFSAdapter struct{}

func NewOSLinkFSAdapter() OSLinkFSAdapter {
	return OSLinkFSAdapter{}
}

var _ ports.LinkFSPort = OSLinkFSAdapter{}

func (a OSLinkFSAdapter) Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (a OSLinkFSAdapter) Lstat(path string) (fs.FileInfo, error) {
	return os.Lstat(path)
}

func (a OSLinkFSAdapter) Readlink(path string) (string, error) {
	return os.Readlink(path)
}

func (a OSLinkFSAdapter) Symlink(target string, link string) error {
	return os.Symlink(target, link)
}

func (a OSLinkFSAdapter) Remove(path string) error {
	return os.Remove(path)
}

func (a OSLinkFSAdapter) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

func (a OSLinkFSAdapter) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (a OSLinkFSAdapter) ReadDir(path string) ([]fs.DirEntry, error) {
	return os.ReadDir(path)
}

func (a OSLinkFSAdapter) Glob(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}

// Touch creates an empty file or leaves an existing one untouched.
func (a OSLinkFSAdapter) Touch(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return file.Close()
}

// RealPath resolves every symlink along path. Components that do not
// exist are kept literally, so a dangling link resolves to the path it
// names rather than failing.
func (a OSLinkFSAdapter) RealPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved := string(filepath.Separator)
	pending := splitPath(abs)
	hops := 0
	for len(pending) > 0 {
		part := pending[0]
		pending = pending[1:]
		switch part {
		case ".":
			continue
		case "..":
			resolved = filepath.Dir(resolved)
			continue
		}
		next := filepath.Join(resolved, part)
		info, err := os.Lstat(next)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				resolved = next
				continue
			}
			return "", err
		}
		if info.Mode()&fs.ModeSymlink == 0 {
			resolved = next
			continue
		}
		hops++
		if hops > maxLinkHops {
			return "", errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg("too many levels of symbolic links: " + path)
		}
		target, err := os.Readlink(next)
		if err != nil {
			return "", err
		}
		if filepath.IsAbs(target) {
			resolved = string(filepath.Separator)
		}
		pending = append(splitPath(target), pending...)
	}
	return filepath.Clean(resolved), nil
}

func splitPath(path string) []string {
	var parts []string
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
