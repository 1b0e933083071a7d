package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"dh-release/internal/ports"
	"dh-release/internal/types"
)

// GitHubTagCatalogAdapter lists the tags of a package repository.
type GitHubTagCatalogAdapter struct {
	sources types.SourcePolicy
	locator ports.RepoLocatorPort
	getter  httpGetter
}

func NewGitHubTagCatalogAdapter(sources types.SourcePolicy, locator ports.RepoLocatorPort, opts HTTPOptions) GitHubTagCatalogAdapter {
	return GitHubTagCatalogAdapter{sources: sources, locator: locator, getter: newHTTPGetter(opts)}
}

var _ ports.ReleaseCatalogPort = GitHubTagCatalogAdapter{}

type githubTag struct {
	Name string `json:"name"`
}

func (a GitHubTagCatalogAdapter) Versions(ctx context.Context, pkg types.PackageDescriptor) ([]string, error) {
	location, err := a.locator.Locate(ctx, pkg.Name)
	if err != nil {
		return nil, err
	}
	var versions []string
	for page := 1; page <= maxRepoPages; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/tags?per_page=100&page=%d", strings.TrimRight(a.sources.GitHubAPI, "/"), location.Org, pkg.Name, page)
		var batch []githubTag
		err := a.getter.get(ctx, url, githubHeaders(a.sources.GitHubToken), func(body io.Reader) error {
			return json.NewDecoder(body).Decode(&batch)
		})
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to list tags of %s/%s", location.Org, pkg.Name)).
				WithCause(err)
		}
		if len(batch) == 0 {
			break
		}
		for _, tag := range batch {
			versions = append(versions, tag.Name)
		}
	}
	return versions, nil
}
