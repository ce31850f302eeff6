package cli

import (
	"context"
	"fmt"

	"archdocs/internal/docs"
	"archdocs/internal/query"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

func newShowCmd(a *app) *cobra.Command {
	var (
		raw    bool
		asJSON bool
		style  string
		width  int
	)

	cmd := &cobra.Command{
		Use:   "show [id-or-path]",
		Short: "Print a document",
		Long: `Print a document by id ("adrs/adr-001") or path ("ADRs/adr-001.md").
Markdown is rendered for the terminal unless --raw is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *query.Engine) error {
				doc, err := e.ByIDOrPath(ctx, args[0])
				if err != nil {
					return err
				}
				if doc == nil {
					return docs.NotFound(args[0])
				}

				out := cmd.OutOrStdout()
				switch {
				case asJSON:
					return printJSON(out, doc)
				case raw:
					_, err := fmt.Fprint(out, doc.Content)
					return err
				}

				rendered, err := renderMarkdown(doc.Content, style, width)
				if err != nil {
					a.logger.Warn("Failed to render markdown, printing raw", "error", err)
					rendered = doc.Content
				}
				_, err = fmt.Fprint(out, rendered)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the markdown source")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the document with its metadata as JSON")
	cmd.Flags().StringVar(&style, "style", "auto", "glamour style: auto, dark, light, notty")
	cmd.Flags().IntVar(&width, "width", 100, "word wrap width")
	return cmd
}

func renderMarkdown(content, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create glamour renderer: %w", err)
	}
	return renderer.Render(content)
}
