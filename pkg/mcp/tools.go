package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/lookup-erp/lookup/pkg/models"
	"github.com/lookup-erp/lookup/pkg/search"
)

type searchArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type reportArgs struct {
	Question string `json:"question"`
}

// toolHandler is a function that handles a tool call.
type toolHandler func(ctx context.Context, s *Server, args json.RawMessage) ToolCallResult

// toolHandlers maps tool names to their handlers.
var toolHandlers = map[string]toolHandler{
	"search_invoices": handleSearchInvoices,
	"search_clients":  handleSearchClients,
	"search_products": handleSearchProducts,
	"report_query":    handleReport,
	"cache_stats":     handleCacheStats,
}

func searchSchema(what string) map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"query"},
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": what,
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of results (optional)",
			},
		},
	}
}

// allTools is the list of tool definitions exposed via tools/list.
var allTools = []ToolDefinition{
	{
		Name:        "search_invoices",
		Description: "Search invoices by number or client name.",
		InputSchema: searchSchema("Invoice number or client name, at least 2 characters"),
	},
	{
		Name:        "search_clients",
		Description: "Search clients by name, tax id or email.",
		InputSchema: searchSchema("Client name, tax id or email, at least 2 characters"),
	},
	{
		Name:        "search_products",
		Description: "Search the product catalogue by name or SKU.",
		InputSchema: searchSchema("Product name or SKU, at least 2 characters"),
	},
	{
		Name:        "report_query",
		Description: "Ask the ERP reporting assistant a free-text question about sales, invoices or stock.",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []string{"question"},
			"properties": map[string]any{
				"question": map[string]any{
					"type":        "string",
					"description": "The question to ask",
				},
			},
		},
	},
	{
		Name:        "cache_stats",
		Description: "Show search cache statistics (entries, hits, misses, hit rate).",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
}

func textResult(text string) ToolCallResult {
	return ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
	}
}

func errorResult(text string) ToolCallResult {
	return ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
		IsError: true,
	}
}

func handleSearchInvoices(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	return runSearch(ctx, s, models.DomainInvoices, s.backend.SearchInvoices, s.invoices, rawArgs, formatInvoices)
}

func handleSearchClients(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	return runSearch(ctx, s, models.DomainClients, s.backend.SearchClients, s.clients, rawArgs, formatClients)
}

func handleSearchProducts(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	return runSearch(ctx, s, models.DomainProducts, s.backend.SearchProducts, s.products, rawArgs, formatProducts)
}

func runSearch[T any](ctx context.Context, s *Server, domain models.Domain, exec search.Executor[T], cache search.Cache[T], rawArgs json.RawMessage, format func([]T) string) ToolCallResult {
	var args searchArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}

	var params url.Values
	if args.Limit > 0 {
		params = url.Values{"limit": {strconv.Itoa(args.Limit)}}
	}
	st, err := search.Once(ctx, exec, search.Options[T]{
		Scope:  string(domain),
		Params: params,
		Policy: s.policy,
		Cache:  cache,
		Logger: &s.log,
	}, args.Query)
	if err != nil {
		return errorResult("Search cancelled: " + err.Error())
	}

	switch {
	case st.Phase == search.PhaseIdle:
		return errorResult(fmt.Sprintf("query %q is too short to search", args.Query))
	case st.SearchError != nil:
		return errorResult(fmt.Sprintf("Error searching %s: %s", domain, st.SearchError))
	}
	return textResult(format(st.Results))
}

func handleReport(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	var args reportArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}
	if args.Question == "" {
		return errorResult("question is required")
	}
	answer, err := s.backend.Report(ctx, args.Question)
	if err != nil {
		return errorResult("Error querying reports: " + err.Error())
	}
	return textResult(answer)
}

func handleCacheStats(_ context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	if s.stats == nil {
		return textResult("Cache is not configured.")
	}
	stats, err := s.stats.Stats()
	if err != nil {
		return errorResult("Error fetching cache stats: " + err.Error())
	}
	return textResult(formatCacheStats(stats))
}
