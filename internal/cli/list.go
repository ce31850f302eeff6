package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"archdocs/internal/docs"
	"archdocs/internal/query"

	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	var (
		category string
		tags     string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed documents",
		Long: `List document metadata, optionally filtered by category or tags.

Examples:
  archdocs list
  archdocs list --category adrs
  archdocs list --tags "security, cloud" --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if category != "" && tags != "" {
				return fmt.Errorf("--category and --tags cannot be combined")
			}

			return a.withEngine(cmd, func(ctx context.Context, e *query.Engine) error {
				var (
					result []docs.Metadata
					err    error
				)
				switch {
				case category != "":
					result, err = e.ByCategory(ctx, category)
				case cmd.Flags().Changed("tags"):
					result, err = e.ByTags(ctx, query.ParseTagList(tags))
				default:
					result, err = e.ListAll(ctx)
				}
				if err != nil {
					return err
				}

				if asJSON {
					return printJSON(cmd.OutOrStdout(), result)
				}
				printMetadataList(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "only documents of this category")
	cmd.Flags().StringVarP(&tags, "tags", "t", "", "only documents carrying any of these comma separated tags")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func printMetadataList(w io.Writer, mds []docs.Metadata) {
	if len(mds) == 0 {
		fmt.Fprintln(w, "No documents found.")
		return
	}

	for _, md := range mds {
		printMetadata(w, md)
	}
	fmt.Fprintln(w, HelpStyle.Render(fmt.Sprintf("%d documents", len(mds))))
}

func printMetadata(w io.Writer, md docs.Metadata) {
	fmt.Fprintf(w, "%s  %s\n", IDStyle.Render(md.ID), TitleStyle.Render(md.Title))
	if md.Description != "" {
		fmt.Fprintf(w, "    %s\n", SubtitleStyle.Render(md.Description))
	}
	if len(md.Tags) > 0 {
		fmt.Fprintf(w, "    %s\n", TagStyle.Render("tags: "+strings.Join(md.Tags, ", ")))
	}
}
