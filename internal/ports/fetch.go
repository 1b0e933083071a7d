package ports

import (
	"context"

	"dh-release/internal/types"
)

type SourceControlPort interface {
	Clone(ctx context.Context, url string, ref string, dir string) error
	Pull(ctx context.Context, dir string) error
}

// RepoLocatorPort finds the organisation hosting a package repository.
type RepoLocatorPort interface {
	Locate(ctx context.Context, name string) (types.RepoLocation, error)
}

type DownloaderPort interface {
	Download(ctx context.Context, url string, dest string) error
}

// UnpackerPort extracts archives. Both methods strip a single top-level
// directory so that the archive contents land directly in dest.
type UnpackerPort interface {
	UnpackTarGz(archive string, dest string) error
	UnpackZip(archive string, dest string) error
}

// StagingPort hands out temporary download paths outside the install tree.
type StagingPort interface {
	TempFile(name string) (string, error)
}
