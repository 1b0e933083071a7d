package adapters

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dh-release/internal/types"
)

// newGitHubServer serves org repository listings and tag pages. Each map
// value is the full list; pagination slices it by per_page.
func newGitHubServer(t *testing.T, repos map[string][]string, tags map[string][]string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		assert.Equal(t, "application/vnd.github.v3+json", r.Header.Get("Accept"))
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		var all []string
		var ok bool
		switch {
		case len(parts) == 3 && parts[0] == "orgs" && parts[2] == "repos":
			all, ok = repos[parts[1]]
		case len(parts) == 4 && parts[0] == "repos" && parts[3] == "tags":
			all, ok = tags[parts[1]+"/"+parts[2]]
		}
		if !ok {
			http.NotFound(w, r)
			return
		}
		start := min((page-1)*perPage, len(all))
		end := min(start+perPage, len(all))
		items := make([]map[string]string, 0, end-start)
		for _, name := range all[start:end] {
			items = append(items, map[string]string{"name": name})
		}
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(items))
	}))
	t.Cleanup(server.Close)
	return server
}

func testSources(api string, discover bool) types.SourcePolicy {
	sources := types.DefaultPolicy().Sources
	sources.GitHubAPI = api
	sources.DiscoverOrgs = discover
	return sources
}

func TestGitHubLocatorAdapterLocate(t *testing.T) {
	server := newGitHubServer(t, map[string][]string{
		"lsst-camera-dh":          {"eotest", "harnessed-jobs", "lcatr-harness"},
		"lsst-camera-electronics": {"ccs-reb", "eotest"},
	}, nil, nil)

	tests := []struct {
		name     string
		pkg      string
		discover bool
		wantOrg  string
	}{
		{name: "first organisation wins", pkg: "eotest", discover: true, wantOrg: "lsst-camera-dh"},
		{name: "second organisation", pkg: "ccs-reb", discover: true, wantOrg: "lsst-camera-electronics"},
		{name: "routed prefix skips lookup", pkg: "REB_firmware", discover: true, wantOrg: "lsst-camera-electronics"},
		{name: "no discovery uses first organisation", pkg: "anything", wantOrg: "lsst-camera-dh"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locator := NewGitHubLocatorAdapter(testSources(server.URL, tt.discover), testHTTPOptions(1))
			location, err := locator.Locate(t.Context(), tt.pkg)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOrg, location.Org)
			assert.Equal(t, "https://github.com/"+tt.wantOrg+"/"+tt.pkg, location.URL)
		})
	}
}

func TestGitHubLocatorAdapterDefaultPolicyDiscovers(t *testing.T) {
	server := newGitHubServer(t, map[string][]string{
		"lsst-camera-dh":          {"eotest", "harnessed-jobs"},
		"lsst-camera-electronics": {"WREB_v2", "GREB_v1", "REB_v5"},
	}, nil, nil)
	sources := types.DefaultPolicy().Sources
	sources.GitHubAPI = server.URL
	locator := NewGitHubLocatorAdapter(sources, testHTTPOptions(1))

	for _, pkg := range []string{"WREB_v2", "GREB_v1", "REB_v5"} {
		location, err := locator.Locate(t.Context(), pkg)
		require.NoError(t, err)
		assert.Equal(t, "lsst-camera-electronics", location.Org, pkg)
	}
	location, err := locator.Locate(t.Context(), "eotest")
	require.NoError(t, err)
	assert.Equal(t, "lsst-camera-dh", location.Org)
}

func TestGitHubLocatorAdapterUnresolvedSuggestsNames(t *testing.T) {
	server := newGitHubServer(t, map[string][]string{
		"lsst-camera-dh": {"eotest", "harnessed-jobs", "lcatr-harness"},
	}, nil, nil)

	locator := NewGitHubLocatorAdapter(testSources(server.URL, true), testHTTPOptions(1))
	_, err := locator.Locate(t.Context(), "harnesed-jobs")
	require.Error(t, err)
	assert.True(t, types.IsUnresolved(err))
	message := types.ErrorMessage(err)
	assert.Contains(t, message, "lsst-camera-dh, lsst-camera-electronics")
	assert.Contains(t, message, "did you mean harnessed-jobs")
}

func TestGitHubLocatorAdapterPaginatesAndCaches(t *testing.T) {
	repos := make([]string, 0, 150)
	for i := range 149 {
		repos = append(repos, "repo-"+strconv.Itoa(i))
	}
	repos = append(repos, "late-package")
	var calls atomic.Int32
	server := newGitHubServer(t, map[string][]string{"lsst-camera-dh": repos}, nil, &calls)

	locator := NewGitHubLocatorAdapter(testSources(server.URL, true), testHTTPOptions(1))
	for range 2 {
		location, err := locator.Locate(t.Context(), "late-package")
		require.NoError(t, err)
		assert.Equal(t, "lsst-camera-dh", location.Org)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestGitHubLocatorAdapterWithoutOrganisations(t *testing.T) {
	sources := testSources("http://127.0.0.1:0", true)
	sources.Orgs = nil
	sources.OrgRoutes = nil
	_, err := NewGitHubLocatorAdapter(sources, testHTTPOptions(1)).Locate(t.Context(), "eotest")
	require.Error(t, err)
	assert.True(t, types.IsUnresolved(err))
}

func TestGitHubHeaders(t *testing.T) {
	assert.NotContains(t, githubHeaders(""), "Authorization")
	assert.Equal(t, "Bearer secret", githubHeaders("secret")["Authorization"])
}

func TestSuggestLimitsMatches(t *testing.T) {
	got := suggest("lcatr", []string{"lcatr-harness", "lcatr-schema", "lcatr-modulefiles", "lcatr-extra", "eotest"})
	assert.Len(t, got, 3)
	assert.NotContains(t, got, "eotest")
	assert.Empty(t, suggest("zzz", []string{"eotest"}))
}
