// Package cli implements the archdocs command tree.
//
// Query commands (list, search, show, related, tags) build the same index
// and query engine the MCP server uses, run one query and print the result.
// With --json they print exactly what the corresponding MCP tool returns.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"archdocs/internal/config"
	"archdocs/internal/index"
	"archdocs/internal/logging"
	"archdocs/internal/query"
	"archdocs/internal/source"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

// app carries the state shared by one invocation of the command tree.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *logging.AppLogger
	src    source.ContentSource
}

// NewRootCommand builds the command tree. Each call returns an independent
// tree so tests can run commands in isolation.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "archdocs",
		Short: "Serve architecture documentation to AI assistants over MCP",
		Long: `archdocs indexes a documentation tree of ADRs, recommendations, style guides
and project structures and serves it through the Model Context Protocol.

The documents can live in a local directory, a GitHub repository (read through
the REST API) or any git remote (mirrored locally).

Example usage:
  archdocs serve                     # MCP over stdio
  archdocs serve --http :8080        # MCP over streamable HTTP
  archdocs search "event sourcing"   # query from the terminal
  archdocs show adrs/adr-001         # render a document`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.logger = logging.NewAppLogger()
			if a.logLevel != "" {
				if err := a.logger.SetLevel(a.logLevel); err != nil {
					return err
				}
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/archdocs/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newServeCmd(a),
		newListCmd(a),
		newSearchCmd(a),
		newShowCmd(a),
		newRelatedCmd(a),
		newTagsCmd(a),
		newAuthCmd(a),
		newConfigCmd(a),
	)
	return root
}

// Execute runs the command tree and exits non-zero on failure.
func Execute(ctx context.Context) {
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), ErrorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

// loadConfig reads the configuration once per invocation.
func (a *app) loadConfig() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	a.cfg = cfg
	return cfg, nil
}

// engine opens the configured source and returns a query engine over a
// fresh, not yet built index. Callers must call a.close.
func (a *app) engine(ctx context.Context) (*query.Engine, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	cats, err := cfg.Categories()
	if err != nil {
		return nil, err
	}

	src, err := source.New(ctx, cfg.SourceConfig(), a.logger)
	if err != nil {
		return nil, err
	}
	a.src = src

	ix := index.New(src, index.Options{Categories: cats}, a.logger)
	return query.New(ix, cfg.Source.BasePath, a.logger), nil
}

func (a *app) close() {
	if a.src == nil {
		return
	}
	if err := source.Close(a.src); err != nil {
		a.logger.Warn("Failed to close source", "error", err)
	}
	a.src = nil
}

// withEngine runs fn against a query engine and releases the source after.
func (a *app) withEngine(cmd *cobra.Command, fn func(ctx context.Context, e *query.Engine) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := a.engine(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, e)
}

// printJSON writes v indented the same way the MCP tools do.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
