package adapters

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"

	"dh-release/internal/ports"
)

// ArchiveUnpackAdapter extracts source tarballs and distribution zips.
// When every entry lives under one top-level directory, that directory is
// stripped so the contents land directly in dest.
type ArchiveUnpackAdapter struct{}

func NewArchiveUnpackAdapter() ArchiveUnpackAdapter {
	return ArchiveUnpackAdapter{}
}

var _ ports.UnpackerPort = ArchiveUnpackAdapter{}

func (a ArchiveUnpackAdapter) UnpackTarGz(archive string, dest string) error {
	var names []string
	err := walkTarGz(archive, func(header *tar.Header, _ io.Reader) error {
		names = append(names, header.Name)
		return nil
	})
	if err != nil {
		return err
	}
	root := commonRoot(names)
	realDest, err := prepareDest(dest)
	if err != nil {
		return unpackError(archive, err)
	}
	return walkTarGz(archive, func(header *tar.Header, body io.Reader) error {
		target, ok, err := extractPath(dest, root, header.Name)
		if err != nil || !ok {
			return err
		}
		if err := ensureInside(realDest, target, header.Name); err != nil {
			return err
		}
		mode := header.FileInfo().Mode()
		switch header.Typeflag {
		case tar.TypeDir:
			return os.MkdirAll(target, 0o755)
		case tar.TypeSymlink:
			return writeSymlink(target, header.Linkname)
		case tar.TypeLink:
			source, ok, err := extractPath(dest, root, header.Linkname)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("hardlink %q has no source", header.Name)
			}
			if err := ensureInside(realDest, source, header.Linkname); err != nil {
				return err
			}
			return writeHardlink(source, target)
		case tar.TypeReg:
			return writeFile(target, body, mode.Perm())
		default:
			return nil
		}
	})
}

func (a ArchiveUnpackAdapter) UnpackZip(archive string, dest string) error {
	reader, err := zip.OpenReader(archive)
	if err != nil {
		return unpackError(archive, err)
	}
	defer reader.Close()

	names := make([]string, 0, len(reader.File))
	for _, file := range reader.File {
		names = append(names, file.Name)
	}
	root := commonRoot(names)
	realDest, err := prepareDest(dest)
	if err != nil {
		return unpackError(archive, err)
	}
	for _, file := range reader.File {
		target, ok, err := extractPath(dest, root, file.Name)
		if err != nil {
			return unpackError(archive, err)
		}
		if !ok {
			continue
		}
		if err := ensureInside(realDest, target, file.Name); err != nil {
			return unpackError(archive, err)
		}
		mode := file.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return unpackError(archive, err)
			}
		case mode&fs.ModeSymlink != 0:
			linkname, err := readZipEntry(file)
			if err != nil {
				return unpackError(archive, err)
			}
			if err := writeSymlink(target, linkname); err != nil {
				return unpackError(archive, err)
			}
		default:
			body, err := file.Open()
			if err != nil {
				return unpackError(archive, err)
			}
			err = writeFile(target, body, zipPerm(mode))
			_ = body.Close()
			if err != nil {
				return unpackError(archive, err)
			}
		}
	}
	return nil
}

func walkTarGz(archive string, fn func(*tar.Header, io.Reader) error) error {
	file, err := os.Open(archive)
	if err != nil {
		return unpackError(archive, err)
	}
	defer file.Close()
	gz, err := gzip.NewReader(file)
	if err != nil {
		return unpackError(archive, err)
	}
	defer gz.Close()
	reader := tar.NewReader(gz)
	for {
		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return unpackError(archive, err)
		}
		if header.Typeflag == tar.TypeXGlobalHeader || header.Typeflag == tar.TypeXHeader {
			continue
		}
		if err := fn(header, reader); err != nil {
			return unpackError(archive, err)
		}
	}
}

// commonRoot returns the single top-level directory shared by all names,
// or "" when entries sit at the top level or under different roots.
func commonRoot(names []string) string {
	root := ""
	nested := false
	for _, name := range names {
		clean := strings.TrimPrefix(path.Clean("/"+name), "/")
		if clean == "" {
			continue
		}
		first, rest, hasRest := strings.Cut(clean, "/")
		if root == "" {
			root = first
		} else if first != root {
			return ""
		}
		if hasRest && rest != "" {
			nested = true
		} else if !strings.HasSuffix(name, "/") && !hasRest {
			return ""
		}
	}
	if !nested {
		return ""
	}
	return root
}

// extractPath maps an archive entry to its destination, refusing entries
// that would escape dest. The stripped root itself maps to nothing.
func extractPath(dest string, root string, name string) (string, bool, error) {
	clean := strings.TrimPrefix(path.Clean("/"+name), "/")
	if root != "" {
		if clean == root {
			return "", false, nil
		}
		clean = strings.TrimPrefix(clean, root+"/")
	}
	if clean == "" {
		return "", false, nil
	}
	target := filepath.Join(dest, filepath.FromSlash(clean))
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(filepath.Separator)) {
		return "", false, fmt.Errorf("entry %q escapes destination", name)
	}
	return target, true, nil
}

// prepareDest creates dest and returns it with every symlink resolved.
func prepareDest(dest string) (string, error) {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", err
	}
	return OSLinkFSAdapter{}.RealPath(dest)
}

// ensureInside refuses an entry whose parent directory, following any
// symlink extracted so far, resolves outside realDest.
func ensureInside(realDest string, target string, name string) error {
	parent, err := OSLinkFSAdapter{}.RealPath(filepath.Dir(target))
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(realDest, parent)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("entry %q resolves outside destination", name)
	}
	return nil
}

// removeLink drops a symlink sitting at target so the next write creates
// a fresh entry instead of following it.
func removeLink(target string) error {
	info, err := os.Lstat(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return nil
	}
	return os.Remove(target)
}

func writeFile(target string, body io.Reader, perm fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if err := removeLink(target); err != nil {
		return err
	}
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, body); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func writeSymlink(target string, linkname string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.Symlink(linkname, target)
}

// writeHardlink links target to an already extracted regular file, copying
// it when the filesystem refuses hard links.
func writeHardlink(source string, target string) error {
	info, err := os.Lstat(source)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("hardlink source %q is not a regular file", source)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.Link(source, target); err == nil {
		return nil
	}
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()
	return writeFile(target, in, info.Mode().Perm())
}

func readZipEntry(file *zip.File) (string, error) {
	body, err := file.Open()
	if err != nil {
		return "", err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func zipPerm(mode fs.FileMode) fs.FileMode {
	perm := mode.Perm()
	if perm == 0 {
		return 0o644
	}
	return perm
}

func unpackError(archive string, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(fmt.Sprintf("failed to unpack %s", filepath.Base(archive))).
		WithCause(err)
}
