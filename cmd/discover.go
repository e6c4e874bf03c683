package main

import (
	"context"
	"fmt"
	"io"

	"github.com/meghashyamc/docdisco/api"
	"github.com/meghashyamc/docdisco/logger"
	"github.com/meghashyamc/docdisco/models"
	"github.com/spf13/cobra"
)

func newDiscoverCmd(root *rootOptions) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Suggest recent documents of mine and of my organization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withDependencies(cmd.Context(), func(ctx context.Context, logger logger.Logger, deps *api.Dependencies) error {
				discovery, err := deps.Engine.QueryDiscovery(ctx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if jsonOut {
					return printJSON(w, discovery)
				}
				printDocs(w, "My documents", discovery.MyDocs)
				printDocs(w, "Organization", discovery.OrgDocs)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the suggestions as JSON")

	return cmd
}

func printDocs(w io.Writer, heading string, set models.SearchResultSet) {
	fmt.Fprintln(w, heading)
	if len(set.Results) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, result := range set.Results {
		fmt.Fprintf(w, "  %-50s %s\n", result.Doc.Title, result.Doc.Link)
	}
}
