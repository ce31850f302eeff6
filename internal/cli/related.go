package cli

import (
	"context"

	"archdocs/internal/query"

	"github.com/spf13/cobra"
)

func newRelatedCmd(a *app) *cobra.Command {
	var (
		maxResults int
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "related [id]",
		Short: "List documents related to a document",
		Long: `List documents similar to the given one, scored by category, shared tags
and shared keywords.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, e *query.Engine) error {
				related, err := e.Related(ctx, args[0], maxResults)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), related)
				}
				printMetadataList(cmd.OutOrStdout(), related)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&maxResults, "max", "n", query.DefaultRelated, "maximum number of results (1-20)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}
