package mcp

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/dshills/acme-orders-mcp/internal/accounts"
	"github.com/dshills/acme-orders-mcp/internal/catalog"
	"github.com/dshills/acme-orders-mcp/internal/config"
	"github.com/dshills/acme-orders-mcp/internal/identity"
	"github.com/dshills/acme-orders-mcp/internal/metrics"
	"github.com/dshills/acme-orders-mcp/internal/orders"
	"github.com/dshills/acme-orders-mcp/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "acme-orders-mcp"
	// ServerVersion is the current server version
	ServerVersion = "0.1.2"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	cfg      *config.Config
	storage  storage.Storage
	accounts *accounts.Registry
	catalog  *catalog.Catalog
	orders   *orders.Engine
	resolver *identity.Resolver
	metrics  *metrics.ToolMetrics
	log      zerolog.Logger
}

// NewServer creates a new MCP server instance over an open store. The caller
// owns the store and closes it after the server stops.
func NewServer(cfg *config.Config, store storage.Storage, log zerolog.Logger) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("storage is required")
	}

	registry := accounts.NewRegistry(store, log)
	cat := catalog.New(store, log)

	s := &Server{
		cfg:      cfg,
		storage:  store,
		accounts: registry,
		catalog:  cat,
		orders:   orders.NewEngine(store, registry, cat, log),
		resolver: identity.NewResolver(cfg.DevIdentity),
		metrics:  metrics.NewToolMetrics(),
		log:      log.With().Str("component", "mcp").Logger(),
	}

	s.mcp = server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
		server.WithToolHandlerMiddleware(s.observe),
		server.WithToolHandlerMiddleware(errorResults),
		server.WithRecovery(),
	)

	s.registerTools()
	return s, nil
}

// Serve runs the configured transport until ctx is canceled
func (s *Server) Serve(ctx context.Context) error {
	if s.cfg.Transport == config.TransportStdio {
		return s.ServeStdio(ctx, os.Stdin, os.Stdout)
	}
	return s.ListenAndServe(ctx)
}

// ServeStdio serves MCP over the given reader and writer. The stdio transport
// carries no headers, so the caller identity comes from configuration.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(stdlog.New(s.log, "", 0))
	stdio.SetContextFunc(s.stdioContext)

	s.log.Info().Msg("MCP server ready, listening on stdio")
	return stdio.Listen(ctx, in, out)
}

func (s *Server) stdioContext(ctx context.Context) context.Context {
	return s.withCaller(ctx, s.cfg.UserInfo)
}

// withCaller resolves a user-info value and stores the credential on ctx.
// Resolution failures leave ctx without a caller.
func (s *Server) withCaller(ctx context.Context, userInfo string) context.Context {
	cred, err := s.resolver.Resolve(userInfo)
	if err != nil {
		s.log.Debug().Err(err).Msg("no caller identity")
		return ctx
	}
	return identity.WithCredential(ctx, cred)
}

// observe logs and measures every tool call
func (s *Server) observe(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		requestID := uuid.NewString()
		tool := request.Params.Name
		caller, _ := identity.FromContext(ctx)

		start := time.Now()
		result, err := next(ctx, request)
		elapsed := time.Since(start)

		failed := err != nil || (result != nil && result.IsError)
		s.metrics.Observe(tool, failed, elapsed)

		event := s.log.Info()
		if failed {
			event = s.log.Warn()
			if err != nil {
				event = event.Err(err)
			} else {
				event = event.Str("error", resultText(result))
			}
		}
		event.
			Str("request_id", requestID).
			Str("tool", tool).
			Str("caller", caller.Email).
			Dur("duration", elapsed).
			Msg("tool call")

		return result, err
	}
}

// resultText returns the first text content of a result
func resultText(result *mcp.CallToolResult) string {
	for _, content := range result.Content {
		if text, ok := content.(mcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}

// errorResults converts handler errors into tool results carrying the MCP
// error code and data. Errors returned to mcp-go itself reach the client as
// a bare internal error.
func errorResults(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := next(ctx, request)
		if err == nil {
			return result, nil
		}
		return asMCPError(err).Result(), nil
	}
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	// Accounts
	s.mcp.AddTool(createAccountTool(), s.handleCreateAccount)
	s.mcp.AddTool(getMyAccountTool(), s.handleGetMyAccount)

	// Orders
	s.mcp.AddTool(createOrderTool(), s.handleCreateOrder)
	s.mcp.AddTool(listMyOrdersTool(), s.handleListMyOrders)
	s.mcp.AddTool(getOrderDetailsTool(), s.handleGetOrderDetails)
	s.mcp.AddTool(amendOrderTool(), s.handleAmendOrder)
	s.mcp.AddTool(submitOrderTool(), s.handleSubmitOrder)
	s.mcp.AddTool(cancelOrderTool(), s.handleCancelOrder)

	// Catalog
	s.mcp.AddTool(updateProductQuantityTool(), s.handleUpdateProductQuantity)
	s.mcp.AddTool(updateProductPriceTool(), s.handleUpdateProductPrice)
	s.mcp.AddTool(retrieveProductDetailsTool(), s.handleRetrieveProductDetails)
	s.mcp.AddTool(searchProductTool(), s.handleSearchProduct)
}
