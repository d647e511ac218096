package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/lookup-erp/lookup/pkg/models"
	"github.com/lookup-erp/lookup/pkg/router"
	"github.com/lookup-erp/lookup/pkg/search"
)

// SearchInvoices searches invoices by number or client name.
func (c *Client) SearchInvoices(ctx context.Context, query string, params url.Values) ([]models.Invoice, error) {
	return searchDomain[models.Invoice](ctx, c, models.DomainInvoices, query, params)
}

// SearchClients searches clients by name, tax id or email.
func (c *Client) SearchClients(ctx context.Context, query string, params url.Values) ([]models.Client, error) {
	return searchDomain[models.Client](ctx, c, models.DomainClients, query, params)
}

// SearchProducts searches the product catalogue.
func (c *Client) SearchProducts(ctx context.Context, query string, params url.Values) ([]models.Product, error) {
	return searchDomain[models.Product](ctx, c, models.DomainProducts, query, params)
}

// InvoiceExecutor adapts c to a search executor.
func InvoiceExecutor(c *Client) search.Executor[models.Invoice] { return c.SearchInvoices }

// ClientExecutor adapts c to a search executor.
func ClientExecutor(c *Client) search.Executor[models.Client] { return c.SearchClients }

// ProductExecutor adapts c to a search executor.
func ProductExecutor(c *Client) search.Executor[models.Product] { return c.SearchProducts }

// searchDomain walks the route chain until one endpoint answers.
func searchDomain[T models.Record](ctx context.Context, c *Client, domain models.Domain, query string, params url.Values) ([]T, error) {
	routes, err := c.router.Resolve(domain, query)
	if err != nil {
		return nil, err
	}

	token, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, route := range routes {
		q := c.searchParams(route, query, params)
		c.log.Debug().Str("domain", string(domain)).Str("path", route.Path).Str("query", query).Msg("search request")

		res, err := c.do(ctx, http.MethodGet, route.Path, token, q, nil)
		if err != nil {
			if contextDone(ctx, err) {
				return nil, err
			}
			c.log.Warn().Err(err).Str("path", route.Path).Msg("search endpoint failed, trying next")
			lastErr = err
			continue
		}
		if isRetryable(res.statusCode) {
			c.log.Warn().Int("status", res.statusCode).Str("path", route.Path).Msg("search endpoint failed, trying next")
			lastErr = statusError(res)
			continue
		}
		if !success(res.statusCode) {
			return nil, statusError(res)
		}
		return decodeRecords[T](domain, res.body, route.Paginated)
	}
	return nil, fmt.Errorf("search %s: all endpoints failed: %w", domain, lastErr)
}

func (c *Client) searchParams(route router.Route, query string, params url.Values) url.Values {
	q := url.Values{}
	for k, vals := range params {
		q[k] = append([]string(nil), vals...)
	}
	q.Set("q", query)
	if q.Get("limit") == "" && c.cfg.Search.Limit > 0 {
		q.Set("limit", strconv.Itoa(c.cfg.Search.Limit))
	}
	if route.Paginated && q.Get("page") == "" {
		q.Set("page", "1")
	}
	return q
}

// decodeRecords parses either a bare JSON array or a Page envelope and
// validates every record.
func decodeRecords[T models.Record](domain models.Domain, body []byte, paginated bool) ([]T, error) {
	raw := json.RawMessage(body)
	if paginated {
		var page models.Page
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, &ParseError{Domain: domain, Index: -1, Reason: "expected page envelope", Err: err}
		}
		if page.Data == nil {
			return nil, &ParseError{Domain: domain, Index: -1, Reason: "page envelope without data"}
		}
		raw = page.Data
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &ParseError{Domain: domain, Index: -1, Reason: "expected JSON array", Err: err}
	}

	out := make([]T, 0, len(items))
	for i, item := range items {
		var rec T
		if err := json.Unmarshal(item, &rec); err != nil {
			return nil, &ParseError{Domain: domain, Index: i, Reason: "malformed record", Err: err}
		}
		if err := rec.Validate(); err != nil {
			return nil, &ParseError{Domain: domain, Index: i, Reason: "invalid record", Err: err}
		}
		out = append(out, rec)
	}
	return out, nil
}
