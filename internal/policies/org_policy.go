package policies

import (
	"strings"

	"dh-release/internal/types"
)

// OrgRouter pins package names to GitHub organisations. Routes are
// checked in order and use the same pattern syntax as protocol fallbacks.
type OrgRouter struct {
	routes []types.OrgRoute
}

func NewOrgRouter(routes []types.OrgRoute) OrgRouter {
	return OrgRouter{routes: routes}
}

func (r OrgRouter) Route(name string) (string, bool) {
	for _, route := range r.routes {
		pattern, kind := parseNamePattern(route.Pattern)
		switch kind {
		case patternWildcard:
			return route.Org, true
		case patternExact:
			if name == pattern {
				return route.Org, true
			}
		case patternPrefix:
			if strings.HasPrefix(name, pattern) {
				return route.Org, true
			}
		}
	}
	return "", false
}
