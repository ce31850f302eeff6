package cli

import (
	"context"
	"errors"
	"fmt"

	"archdocs/internal/mcp"
	"archdocs/internal/query"
	"archdocs/internal/watch"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		httpAddr  string
		watchDocs bool
		preload   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol server for AI assistant integration.

By default the server communicates over stdio using JSON-RPC. Use --http to
serve the streamable HTTP transport instead.

The index is built on the first tool call unless --preload is given. With
--watch, a local documentation tree is re-indexed when files change.

MCP client configuration:
  {
    "mcpServers": {
      "archdocs": {
        "command": "/path/to/archdocs",
        "args": ["serve"]
      }
    }
  }`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("http") {
				cfg.Server.HTTPAddr = httpAddr
			}
			if cmd.Flags().Changed("watch") {
				cfg.Watch = watchDocs
			}

			return a.withEngine(cmd, func(ctx context.Context, e *query.Engine) error {
				server := mcp.NewServer(e, mcp.Options{
					Name:    cfg.Server.Name,
					Version: cfg.Server.Version,
				}, a.logger)

				ctx, cancel := context.WithCancel(ctx)
				defer cancel()
				g, gctx := errgroup.WithContext(ctx)

				if preload {
					g.Go(func() error {
						if _, err := e.Index().Snapshot(gctx); err != nil && gctx.Err() == nil {
							a.logger.Error("Preloading index failed", "error", err)
						}
						return nil
					})
				}

				if cfg.Watch {
					w, err := watch.ForSource(a.src, e.Index(), watch.Options{}, a.logger)
					switch {
					case errors.Is(err, watch.ErrNotWatchable):
						a.logger.Warn("Watch is only supported for local sources", "source", a.src.Describe())
					case err != nil:
						return fmt.Errorf("failed to start watcher: %w", err)
					default:
						defer w.Close()
						g.Go(func() error { return w.Run(gctx) })
					}
				}

				g.Go(func() error {
					// stdio returns on EOF; stop the watcher with it
					defer cancel()
					return server.Serve(gctx, cfg.Server.HTTPAddr)
				})

				return g.Wait()
			})
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http", "", "serve streamable HTTP on this address instead of stdio (e.g. :8080)")
	cmd.Flags().BoolVar(&watchDocs, "watch", false, "re-index when local documents change")
	cmd.Flags().BoolVar(&preload, "preload", false, "build the index at startup instead of on first use")
	return cmd
}
