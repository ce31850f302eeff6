package cli

import (
	"context"
	"fmt"
	"io"

	"archdocs/internal/docs"
	"archdocs/internal/query"

	"github.com/spf13/cobra"
)

func newSearchCmd(a *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "search [term]",
		Short: "Search documents",
		Long: `Full-text search over titles, descriptions, tags and content.
Results are ranked by a relevance score from 0 to 100.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *query.Engine) error {
				results, err := e.Search(ctx, args[0])
				if err != nil {
					return err
				}
				if limit > 0 && len(results) > limit {
					results = results[:limit]
				}

				if asJSON {
					return printJSON(cmd.OutOrStdout(), results)
				}
				printSearchResults(cmd.OutOrStdout(), args[0], results)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of results (0 = all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output results as JSON")
	return cmd
}

func printSearchResults(w io.Writer, term string, results []docs.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "Found %d results for: %s\n\n", len(results), term)
	for i, r := range results {
		fmt.Fprintf(w, "  [%d] %s  %s (%s, %d matches)\n",
			i+1,
			TitleStyle.Render(r.Metadata.Title),
			IDStyle.Render(r.Metadata.ID),
			ScoreStyle.Render(fmt.Sprintf("%d", r.RelevanceScore)),
			r.MatchCount)
		for _, ex := range r.Excerpts {
			fmt.Fprintln(w, ExcerptStyle.Render(ex))
		}
		fmt.Fprintln(w)
	}
}
