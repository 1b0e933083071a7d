package ports

import (
	"context"

	"dh-release/internal/types"
)

// ReleaseCatalogPort lists released versions of a package, newest order
// not guaranteed.
type ReleaseCatalogPort interface {
	Versions(ctx context.Context, pkg types.PackageDescriptor) ([]string, error)
}

type InspectorPort interface {
	Inspect(instDir string) (types.InstallStatus, error)
}
