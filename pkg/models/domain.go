package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDomain is returned when a search domain name is not recognised.
var ErrUnknownDomain = errors.New("unknown search domain")

// Domain identifies one of the searchable collections of the backend.
type Domain string

const (
	DomainInvoices Domain = "invoices"
	DomainClients  Domain = "clients"
	DomainProducts Domain = "products"
)

// Domains lists every supported domain in display order.
var Domains = []Domain{DomainInvoices, DomainClients, DomainProducts}

// ParseDomain resolves a user supplied name, accepting the backend's Spanish
// collection names as aliases.
func ParseDomain(name string) (Domain, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "invoices", "invoice", "facturas", "factura":
		return DomainInvoices, nil
	case "clients", "client", "clientes", "cliente":
		return DomainClients, nil
	case "products", "product", "productos", "producto":
		return DomainProducts, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDomain, name)
}
