package cli

import (
	"context"
	"fmt"

	"archdocs/internal/query"

	"github.com/spf13/cobra"
)

func newTagsCmd(a *app) *cobra.Command {
	var (
		asJSON     bool
		categories bool
	)

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List tags with document counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *query.Engine) error {
				out := cmd.OutOrStdout()

				if categories {
					cats, err := e.Categories(ctx)
					if err != nil {
						return err
					}
					if asJSON {
						return printJSON(out, cats)
					}
					for _, c := range cats {
						fmt.Fprintf(out, "%-16s %s\n", c.Category, ScoreStyle.Render(fmt.Sprintf("%d", c.Count)))
					}
					return nil
				}

				tags, err := e.Tags(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(out, tags)
				}
				if len(tags) == 0 {
					fmt.Fprintln(out, "No tags found.")
					return nil
				}
				for _, t := range tags {
					fmt.Fprintf(out, "%s %s\n", TagStyle.Render(t.Tag), HelpStyle.Render(fmt.Sprintf("(%d)", t.Count)))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	cmd.Flags().BoolVar(&categories, "categories", false, "list categories with document counts instead")
	return cmd
}
