package router

import (
	"testing"

	"github.com/lookup-erp/lookup/pkg/config"
	"github.com/lookup-erp/lookup/pkg/models"
)

func testConfig() *config.Config {
	return &config.Config{
		Search: config.SearchConfig{FastQueryLength: 10},
		Endpoints: map[models.Domain]config.EndpointConfig{
			models.DomainClients: {Fast: "/clients/quick", Paginated: "/clients/search"},
		},
	}
}

func TestResolveShortQueryFastFirst(t *testing.T) {
	r := New(testConfig())
	routes, err := r.Resolve(models.DomainClients, "jo")
	if err != nil {
		t.Fatal(err)
	}
	if len(routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(routes))
	}
	if routes[0].Path != "/clients/quick" || routes[0].Paginated {
		t.Errorf("unexpected first route: %+v", routes[0])
	}
	if routes[1].Path != "/clients/search" || !routes[1].Paginated {
		t.Errorf("unexpected second route: %+v", routes[1])
	}
}

func TestResolveLongQueryPaginatedFirst(t *testing.T) {
	r := New(testConfig())
	routes, err := r.Resolve(models.DomainClients, "juan perez lopez")
	if err != nil {
		t.Fatal(err)
	}
	if !routes[0].Paginated {
		t.Errorf("expected paginated first, got %+v", routes[0])
	}
}

func TestResolveThresholdIsExclusive(t *testing.T) {
	r := New(testConfig())
	routes, err := r.Resolve(models.DomainClients, "abcdefghij")
	if err != nil {
		t.Fatal(err)
	}
	if !routes[0].Paginated {
		t.Errorf("a 10 rune query should go paginated first, got %+v", routes[0])
	}
}

func TestResolveZeroThresholdDisablesFastFirst(t *testing.T) {
	cfg := testConfig()
	cfg.Search.FastQueryLength = 0
	routes, err := New(cfg).Resolve(models.DomainClients, "jo")
	if err != nil {
		t.Fatal(err)
	}
	if !routes[0].Paginated {
		t.Errorf("expected paginated first, got %+v", routes[0])
	}
}

func TestResolveSkipsMissingEndpoint(t *testing.T) {
	cfg := testConfig()
	cfg.Endpoints[models.DomainProducts] = config.EndpointConfig{Paginated: "/products/search"}
	routes, err := New(cfg).Resolve(models.DomainProducts, "jo")
	if err != nil {
		t.Fatal(err)
	}
	if len(routes) != 1 || routes[0].Path != "/products/search" {
		t.Errorf("unexpected routes: %+v", routes)
	}
}

func TestResolveUnknownDomain(t *testing.T) {
	if _, err := New(testConfig()).Resolve(models.DomainInvoices, "jo"); err == nil {
		t.Fatal("expected error for unconfigured domain")
	}
}

func TestResolveNoEndpoints(t *testing.T) {
	cfg := testConfig()
	cfg.Endpoints[models.DomainInvoices] = config.EndpointConfig{}
	if _, err := New(cfg).Resolve(models.DomainInvoices, "jo"); err == nil {
		t.Fatal("expected error for domain without endpoints")
	}
}
