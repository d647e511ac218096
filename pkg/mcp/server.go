// Package mcp exposes the ERP searches to AI assistants as an MCP server
// speaking JSON-RPC 2.0 over stdio.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/lookup-erp/lookup/pkg/models"
	"github.com/lookup-erp/lookup/pkg/search"
)

// Backend is the ERP client the tools call. backend.Client implements it.
type Backend interface {
	SearchInvoices(ctx context.Context, query string, params url.Values) ([]models.Invoice, error)
	SearchClients(ctx context.Context, query string, params url.Values) ([]models.Client, error)
	SearchProducts(ctx context.Context, query string, params url.Values) ([]models.Product, error)
	Report(ctx context.Context, question string) (string, error)
}

// CacheStatter provides cache statistics without coupling to a concrete cache implementation.
type CacheStatter interface {
	Stats() (models.CacheStats, error)
}

// Server is a minimal MCP server that communicates over stdio using JSON-RPC 2.0.
type Server struct {
	backend Backend
	policy  search.Policy
	stats   CacheStatter
	log     zerolog.Logger
	version string

	invoices search.Cache[models.Invoice]
	clients  search.Cache[models.Client]
	products search.Cache[models.Product]
}

// Option configures a Server.
type Option func(*Server)

// WithCaches makes the search tools read and fill the given result caches.
func WithCaches(inv search.Cache[models.Invoice], cli search.Cache[models.Client], prod search.Cache[models.Product]) Option {
	return func(s *Server) {
		s.invoices, s.clients, s.products = inv, cli, prod
	}
}

// WithStats enables the cache_stats tool.
func WithStats(st CacheStatter) Option {
	return func(s *Server) { s.stats = st }
}

// New creates a new MCP Server.
func New(b Backend, policy search.Policy, version string, log zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		backend: b,
		policy:  policy,
		log:     log.With().Str("component", "mcp").Logger(),
		version: version,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run reads JSON-RPC requests from r line-by-line and writes responses to w.
// It blocks until r is closed or ctx is cancelled.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeResponse(w, *replyError(nil, CodeParseError, "parse error"))
			continue
		}

		resp := s.dispatch(ctx, &req)
		if resp == nil {
			continue // notification
		}
		s.writeResponse(w, *resp)
	}
	return scanner.Err()
}

func (s *Server) dispatch(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		return nil
	case "ping":
		return reply(req.ID, map[string]any{})
	case "tools/list":
		return reply(req.ID, ToolsListResult{Tools: allTools})
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	default:
		return replyError(req.ID, CodeMethodNotFound, "unknown method: %s", req.Method)
	}
}

func (s *Server) handleInitialize(req *Request) *Response {
	var params InitializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return replyError(req.ID, CodeInvalidParams, "invalid initialize params")
		}
	}
	s.log.Info().
		Str("client", params.ClientInfo.Name).
		Str("client_version", params.ClientInfo.Version).
		Str("requested_protocol", params.ProtocolVersion).
		Msg("mcp session opened")

	return reply(req.ID, InitializeResult{
		ProtocolVersion: protocolVersion,
		ServerInfo:      Implementation{Name: "lookup", Version: s.version},
		Capabilities:    ServerCapabilities{Tools: &ToolsCapability{}},
	})
}

func (s *Server) handleToolsCall(ctx context.Context, req *Request) *Response {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return replyError(req.ID, CodeInvalidParams, "invalid params")
	}

	handler, ok := toolHandlers[params.Name]
	if !ok {
		return reply(req.ID, errorResult(fmt.Sprintf("unknown tool: %s", params.Name)))
	}

	s.log.Debug().Str("tool", params.Name).Msg("tool call")
	return reply(req.ID, handler(ctx, s, params.Arguments))
}

func (s *Server) writeResponse(w io.Writer, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal response")
		return
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		s.log.Error().Err(err).Msg("write response")
	}
}
