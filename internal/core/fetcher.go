package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"dh-release/internal/ports"
	"dh-release/internal/types"
)

// PackageFetcher decides whether and how a classified package is fetched.
// All I/O goes through ports and every path is derived from the install
// directory passed in; nothing depends on the working directory.
type PackageFetcher struct {
	FS         ports.LinkFSPort
	Binder     SymlinkBinder
	Git        ports.SourceControlPort
	Locator    ports.RepoLocatorPort
	Downloader ports.DownloaderPort
	Unpacker   ports.UnpackerPort
	Staging    ports.StagingPort
	Protocols  types.ProtocolPolicy
	Sources    types.SourcePolicy
}

// FetchResult describes one fetch. Binding is nil for archives, which are
// never linked.
type FetchResult struct {
	Record  types.FetchRecord
	Binding *types.BindingResult
}

func (f PackageFetcher) Fetch(ctx context.Context, instDir string, pkg types.PackageDescriptor) (FetchResult, error) {
	switch pkg.Protocol {
	case types.ProtocolVCS:
		return f.FetchVCS(ctx, instDir, pkg)
	case types.ProtocolArchive:
		return f.FetchArchive(ctx, instDir, pkg)
	case types.ProtocolArtifact:
		return f.FetchArtifact(ctx, instDir, pkg)
	default:
		return FetchResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported protocol %q for %s", pkg.Protocol, pkg.Name))
	}
}

// FetchVCS clones <name>_<ref> or refreshes it with a pull, then points the
// stable name at it. An empty ref means the default branch.
func (f PackageFetcher) FetchVCS(ctx context.Context, instDir string, pkg types.PackageDescriptor) (FetchResult, error) {
	ref := pkg.Version
	if ref == "" {
		ref = f.defaultBranch()
	}
	dirName := VCSDirName(pkg.Name, ref)
	dir := filepath.Join(instDir, dirName)
	record := types.FetchRecord{Package: pkg, Dir: dir}

	exists, err := f.FS.Exists(dir)
	if err != nil {
		return FetchResult{Record: record}, err
	}
	if exists {
		log.Debug().Str("dir", dir).Msg("pulling existing clone")
		if err := f.Git.Pull(ctx, dir); err != nil {
			return FetchResult{Record: record}, err
		}
		record.Outcome = types.FetchOutcomePulled
	} else {
		location, err := f.Locator.Locate(ctx, pkg.Name)
		if err != nil {
			return FetchResult{Record: record}, err
		}
		log.Info().Str("package", pkg.Name).Str("ref", ref).Str("url", location.URL).Msg("cloning")
		if err := f.Git.Clone(ctx, location.URL, ref, dir); err != nil {
			return FetchResult{Record: record}, err
		}
		record.Outcome = types.FetchOutcomeCloned
	}

	binding, err := f.Binder.Bind(ctx, filepath.Join(instDir, pkg.Name), dirName)
	if err != nil {
		return FetchResult{Record: record}, err
	}
	return FetchResult{Record: record, Binding: &binding}, nil
}

// FetchArchive downloads the tagged source tarball of a repository and
// unpacks it into <name>-<version>. Re-running overwrites in place.
func (f PackageFetcher) FetchArchive(ctx context.Context, instDir string, pkg types.PackageDescriptor) (FetchResult, error) {
	dir := filepath.Join(instDir, VersionedDirName(pkg.Name, pkg.Version))
	record := types.FetchRecord{Package: pkg, Dir: dir}
	if pkg.Version == "" {
		return FetchResult{Record: record}, types.UnresolvedPackageError(pkg.Name, "archive needs a version", nil)
	}
	location, err := f.Locator.Locate(ctx, pkg.Name)
	if err != nil {
		return FetchResult{Record: record}, err
	}
	url := ArchiveURL(f.Sources.GitHubURL, location.Org, pkg.Name, pkg.Version)
	if err := f.downloadAndUnpack(ctx, url, pkg.Version+".tar.gz", dir, f.Unpacker.UnpackTarGz); err != nil {
		return FetchResult{Record: record}, err
	}
	record.Outcome = types.FetchOutcomeDownloaded
	return FetchResult{Record: record}, nil
}

// FetchTarball unpacks a tarball from a fixed URL into dir.
func (f PackageFetcher) FetchTarball(ctx context.Context, url string, dir string) error {
	return f.downloadAndUnpack(ctx, url, filepath.Base(dir)+".tar.gz", dir, f.Unpacker.UnpackTarGz)
}

// FetchArtifact installs a binary distribution. A released version whose
// directory already exists is left untouched; snapshots are always
// replaced with a fresh copy.
func (f PackageFetcher) FetchArtifact(ctx context.Context, instDir string, pkg types.PackageDescriptor) (FetchResult, error) {
	dirName := VersionedDirName(pkg.Name, pkg.Version)
	dir := filepath.Join(instDir, dirName)
	record := types.FetchRecord{Package: pkg, Dir: dir}
	if pkg.Version == "" {
		return FetchResult{Record: record}, types.UnresolvedPackageError(pkg.Name, "artifact needs a version", nil)
	}

	exists, err := f.FS.Exists(dir)
	if err != nil {
		return FetchResult{Record: record}, err
	}
	if !IsSnapshot(pkg.Version, f.Protocols.SnapshotMarker) && exists {
		log.Info().Str("dir", dirName).Msg("skipping download of released package")
		record.Outcome = types.FetchOutcomeSkipped
	} else {
		url := ArtifactURL(f.Sources.NexusURL, pkg.Name, pkg.Version, f.Sources.ArtifactKind)
		if err := f.downloadAndUnpack(ctx, url, dirName+".zip", dir, f.Unpacker.UnpackZip); err != nil {
			return FetchResult{Record: record}, err
		}
		record.Outcome = types.FetchOutcomeDownloaded
	}

	binding, err := f.Binder.Bind(ctx, filepath.Join(instDir, pkg.Name), dirName)
	if err != nil {
		return FetchResult{Record: record}, err
	}
	return FetchResult{Record: record, Binding: &binding}, nil
}

// downloadAndUnpack stages the download outside the install tree so that
// the previous directory is only removed once a new copy is on disk.
func (f PackageFetcher) downloadAndUnpack(ctx context.Context, url string, name string, dir string, unpack func(string, string) error) error {
	staged, err := f.Staging.TempFile(name)
	if err != nil {
		return err
	}
	defer func() {
		if err := f.FS.Remove(staged); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("file", staged).Msg("failed to remove staged download")
		}
	}()
	log.Info().Str("url", url).Msg("downloading")
	if err := f.Downloader.Download(ctx, url, staged); err != nil {
		return err
	}
	if err := f.FS.RemoveAll(dir); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to remove %s", dir)).
			WithCause(err)
	}
	return unpack(staged, dir)
}

func (f PackageFetcher) defaultBranch() string {
	if f.Protocols.DefaultBranch != "" {
		return f.Protocols.DefaultBranch
	}
	return "master"
}

func VCSDirName(name string, ref string) string {
	return name + "_" + ref
}

func VersionedDirName(name string, version string) string {
	return name + "-" + version
}

func IsSnapshot(version string, marker string) bool {
	if marker == "" {
		marker = "SNAPSHOT"
	}
	return strings.Contains(version, marker)
}

func ArchiveURL(base string, org string, name string, version string) string {
	return strings.Join([]string{strings.TrimRight(base, "/"), org, name, "archive", version + ".tar.gz"}, "/")
}

func ArtifactURL(base string, name string, version string, classifier string) string {
	file := name + "-" + version
	if classifier != "" {
		file += "-" + classifier
	}
	return strings.Join([]string{strings.TrimRight(base, "/"), name, version, file + ".zip"}, "/")
}
