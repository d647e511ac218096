package router

import (
	"fmt"

	"github.com/lookup-erp/lookup/pkg/config"
	"github.com/lookup-erp/lookup/pkg/models"
	"github.com/lookup-erp/lookup/pkg/normalize"
)

// Route is one search endpoint to try.
type Route struct {
	Domain    models.Domain
	Path      string
	Paginated bool
}

// Router resolves a domain and query to an ordered endpoint chain.
type Router struct {
	cfg *config.Config
}

// New creates a Router from the given configuration.
func New(cfg *config.Config) *Router {
	return &Router{cfg: cfg}
}

// Resolve returns the endpoints to try for a normalized query, best first.
// Queries shorter than search.fast_query_length runes try the fast endpoint
// first and fall back to the paginated one; longer queries do the opposite.
// Unset endpoints are skipped.
func (r *Router) Resolve(domain models.Domain, query string) ([]Route, error) {
	ep, ok := r.cfg.Endpoints[domain]
	if !ok {
		return nil, fmt.Errorf("no endpoints configured for %q", domain)
	}

	fast := Route{Domain: domain, Path: ep.Fast}
	paged := Route{Domain: domain, Path: ep.Paginated, Paginated: true}

	order := []Route{paged, fast}
	threshold := r.cfg.Search.FastQueryLength
	if threshold > 0 && normalize.Length(query) < threshold {
		order = []Route{fast, paged}
	}

	var routes []Route
	for _, route := range order {
		if route.Path == "" {
			continue // endpoint not offered by this backend
		}
		routes = append(routes, route)
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("domain %q: no endpoints configured", domain)
	}
	return routes, nil
}
