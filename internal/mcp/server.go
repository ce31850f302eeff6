package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"archdocs/internal/logging"
	"archdocs/internal/query"

	"github.com/mark3labs/mcp-go/server"
)

const (
	// DefaultServerName is reported to clients during initialization.
	DefaultServerName = "archdocs"
	// DefaultServerVersion is the current server version
	DefaultServerVersion = "1.0.0"
	// EndpointPath is where the streamable HTTP transport listens.
	EndpointPath = "/mcp"

	shutdownTimeout = 5 * time.Second
)

const instructions = `archdocs serves architecture documentation: ADRs, recommendations, style guides and project structures.
Start with GetCategories or GetAllTags to see what exists, use SearchDocuments for free text, then GetDocumentByIdOrPath to read a document.
GetRelatedDocuments finds documents similar to one you already have.`

// Options configure the MCP server.
type Options struct {
	Name    string
	Version string
}

// Server wraps the mcp-go server with the query engine it serves.
type Server struct {
	engine    *query.Engine
	logger    *logging.AppLogger
	mcpServer *server.MCPServer
}

// NewServer creates the MCP server and registers all tools and resources.
func NewServer(engine *query.Engine, opts Options, logger *logging.AppLogger) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if opts.Name == "" {
		opts.Name = DefaultServerName
	}
	if opts.Version == "" {
		opts.Version = DefaultServerVersion
	}

	s := &Server{
		engine: engine,
		logger: logger.With("component", "mcp"),
	}

	s.mcpServer = server.NewMCPServer(
		opts.Name,
		opts.Version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	s.registerTools()
	s.registerResources()

	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves JSON-RPC over in and out until ctx is cancelled or in
// reaches EOF.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("Starting MCP server", "transport", "stdio")

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(s.logger.StandardLog())

	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("MCP stdio server failed: %w", err)
	}
	s.logger.Info("MCP server stopped", "transport", "stdio")
	return nil
}

// ServeHTTP serves the streamable HTTP transport on addr until ctx is
// cancelled.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.mcpServer,
		server.WithEndpointPath(EndpointPath),
	)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting MCP server", "transport", "http", "addr", addr, "path", EndpointPath)
		errCh <- httpServer.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("MCP HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("MCP HTTP server shutdown: %w", err)
	}
	s.logger.Info("MCP server stopped", "transport", "http")
	return nil
}

// Serve picks the transport: streamable HTTP when httpAddr is set,
// otherwise stdio on the process streams.
func (s *Server) Serve(ctx context.Context, httpAddr string) error {
	if httpAddr != "" {
		return s.ServeHTTP(ctx, httpAddr)
	}
	return s.ServeStdio(ctx, os.Stdin, os.Stdout)
}
