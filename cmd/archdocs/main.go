// Package main is the entry point for the archdocs CLI.
//
// archdocs serves a tree of architecture documents (ADRs, recommendations,
// style guides, project structures) to AI assistants over the Model Context
// Protocol and offers the same queries from the terminal.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"archdocs/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.Execute(ctx)
}
