// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// Route names accepted in configuration.
const (
	RouteDirect     = "direct"
	RouteAllOrigins = "allorigins"
	RouteCorsProxy  = "corsproxy"
	RouteCorsSh     = "corssh"
)

// corsShKeyHeader carries the optional proxy.cors.sh API key.
const corsShKeyHeader = "x-cors-api-key"

// Route is one strategy for reaching a target URL: directly or through a
// rewriting intermediary. Routes hold no per-call state.
type Route struct {
	Name string

	// Rewrite maps the target URL to the URL actually requested.
	Rewrite func(target string) string

	// Header is applied to every request sent through this route.
	Header http.Header
}

func (r Route) url(target string) string {
	if r.Rewrite == nil {
		return target
	}
	return r.Rewrite(target)
}

// Direct requests the target unchanged.
func Direct() Route {
	return Route{Name: RouteDirect}
}

// AllOrigins routes through api.allorigins.win's raw endpoint.
func AllOrigins() Route {
	return Route{
		Name: RouteAllOrigins,
		Rewrite: func(target string) string {
			return "https://api.allorigins.win/raw?url=" + url.QueryEscape(target)
		},
	}
}

// CorsProxy routes through corsproxy.io.
func CorsProxy() Route {
	return Route{
		Name: RouteCorsProxy,
		Rewrite: func(target string) string {
			return "https://corsproxy.io/?" + url.QueryEscape(target)
		},
	}
}

// CorsSh routes through proxy.cors.sh. The API key is optional.
func CorsSh(apiKey string) Route {
	r := Route{
		Name: RouteCorsSh,
		Rewrite: func(target string) string {
			return "https://proxy.cors.sh/" + target
		},
	}
	if apiKey != "" {
		r.Header = http.Header{}
		r.Header.Set(corsShKeyHeader, apiKey)
	}
	return r
}

// Prefixed returns a route that prepends prefix to the escaped target.
// Useful for self-hosted rewriters and tests.
func Prefixed(name, prefix string) Route {
	return Route{
		Name: name,
		Rewrite: func(target string) string {
			return prefix + url.QueryEscape(target)
		},
	}
}

// DefaultRoutes returns the fallback chain in priority order.
func DefaultRoutes() []Route {
	return []Route{AllOrigins(), CorsProxy(), CorsSh("")}
}

// RoutesByName resolves configured route names into a fresh route list.
func RoutesByName(names []string, corsShAPIKey string) ([]Route, error) {
	if len(names) == 0 {
		routes := DefaultRoutes()
		routes[2] = CorsSh(corsShAPIKey)
		return routes, nil
	}

	routes := make([]Route, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case RouteDirect:
			routes = append(routes, Direct())
		case RouteAllOrigins:
			routes = append(routes, AllOrigins())
		case RouteCorsProxy:
			routes = append(routes, CorsProxy())
		case RouteCorsSh:
			routes = append(routes, CorsSh(corsShAPIKey))
		default:
			return nil, fmt.Errorf("unknown fetch route %q: use direct, allorigins, corsproxy, or corssh", name)
		}
	}
	return routes, nil
}

var constrainedClientPattern = regexp.MustCompile(`(?i)Android|webOS|iPhone|iPad|iPod|BlackBerry|IEMobile|Opera Mini`)

// IsConstrainedClient reports whether userAgent looks like a mobile client.
func IsConstrainedClient(userAgent string) bool {
	return constrainedClientPattern.MatchString(userAgent)
}
