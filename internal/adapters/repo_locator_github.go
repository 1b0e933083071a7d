package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"github.com/sahilm/fuzzy"

	"dh-release/internal/policies"
	"dh-release/internal/ports"
	"dh-release/internal/types"
)

const maxRepoPages = 50

// GitHubLocatorAdapter finds which configured organisation hosts a
// repository. Routed names skip the lookup; otherwise every organisation's
// repository list is fetched once and searched in configuration order.
type GitHubLocatorAdapter struct {
	sources types.SourcePolicy
	router  policies.OrgRouter
	getter  httpGetter
	cache   *repoCache
}

type repoCache struct {
	mu    sync.Mutex
	repos map[string][]string
}

func NewGitHubLocatorAdapter(sources types.SourcePolicy, opts HTTPOptions) GitHubLocatorAdapter {
	return GitHubLocatorAdapter{
		sources: sources,
		router:  policies.NewOrgRouter(sources.OrgRoutes),
		getter:  newHTTPGetter(opts),
		cache:   &repoCache{repos: map[string][]string{}},
	}
}

var _ ports.RepoLocatorPort = GitHubLocatorAdapter{}

func (a GitHubLocatorAdapter) Locate(ctx context.Context, name string) (types.RepoLocation, error) {
	if org, ok := a.router.Route(name); ok {
		return a.location(org, name), nil
	}
	if len(a.sources.Orgs) == 0 {
		return types.RepoLocation{}, types.UnresolvedPackageError(name, "no GitHub organisations configured", nil)
	}
	if !a.sources.DiscoverOrgs {
		return a.location(a.sources.Orgs[0], name), nil
	}
	var all []string
	for _, org := range a.sources.Orgs {
		repos, err := a.repos(ctx, org)
		if err != nil {
			return types.RepoLocation{}, err
		}
		for _, repo := range repos {
			if repo == name {
				return a.location(org, name), nil
			}
		}
		all = append(all, repos...)
	}
	detail := fmt.Sprintf("not found in %s", strings.Join(a.sources.Orgs, ", "))
	if suggestions := suggest(name, all); len(suggestions) > 0 {
		detail += "; did you mean " + strings.Join(suggestions, ", ") + "?"
	}
	return types.RepoLocation{}, types.UnresolvedPackageError(name, detail, nil)
}

func (a GitHubLocatorAdapter) location(org string, name string) types.RepoLocation {
	base := strings.TrimRight(a.sources.GitHubURL, "/")
	return types.RepoLocation{Org: org, URL: strings.Join([]string{base, org, name}, "/")}
}

type githubRepo struct {
	Name string `json:"name"`
}

func (a GitHubLocatorAdapter) repos(ctx context.Context, org string) ([]string, error) {
	a.cache.mu.Lock()
	defer a.cache.mu.Unlock()
	if repos, ok := a.cache.repos[org]; ok {
		return repos, nil
	}
	var names []string
	for page := 1; page <= maxRepoPages; page++ {
		url := fmt.Sprintf("%s/orgs/%s/repos?per_page=100&page=%d", strings.TrimRight(a.sources.GitHubAPI, "/"), org, page)
		var batch []githubRepo
		err := a.getter.get(ctx, url, githubHeaders(a.sources.GitHubToken), func(body io.Reader) error {
			return json.NewDecoder(body).Decode(&batch)
		})
		if err != nil {
			if errors.Is(err, errHTTPNotFound) {
				log.Warn().Str("org", org).Msg("GitHub organisation not found")
				break
			}
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to list repositories of %s", org)).
				WithCause(err)
		}
		if len(batch) == 0 {
			break
		}
		for _, repo := range batch {
			names = append(names, repo.Name)
		}
	}
	a.cache.repos[org] = names
	return names, nil
}

func githubHeaders(token string) map[string]string {
	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	if strings.TrimSpace(token) != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return headers
}

func suggest(name string, candidates []string) []string {
	matches := fuzzy.Find(name, candidates)
	var out []string
	for _, match := range matches {
		out = append(out, match.Str)
		if len(out) == 3 {
			break
		}
	}
	return out
}
