package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/meghashyamc/docdisco/api"
	"github.com/meghashyamc/docdisco/logger"
	"github.com/meghashyamc/docdisco/services/search"
	"github.com/spf13/cobra"
)

type searchOptions struct {
	limit   int
	local   bool
	jsonOut bool
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search local and remote documents",
		Long: `Search the local index and, unless --local is given, Drive too.

The local results are printed first; the merged results follow once
Drive has answered.

Examples:
  docdisco search "quarterly budget"
  docdisco search roadmap --limit 5 --local`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return root.withDependencies(cmd.Context(), func(ctx context.Context, logger logger.Logger, deps *api.Dependencies) error {
				return runSearch(ctx, cmd.OutOrStdout(), deps.Engine, query, opts)
			})
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().BoolVar(&opts.local, "local", false, "Search the local index only")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print responses as JSON")

	return cmd
}

type searchEvent struct {
	response *search.SearchResponse
	err      error
}

func runSearch(ctx context.Context, w io.Writer, engine *search.Engine, query string, opts searchOptions) error {
	events := make(chan searchEvent, 2)
	cancel := engine.QuerySearch(ctx, query, opts.limit, !opts.local, func(response *search.SearchResponse, err error) {
		events <- searchEvent{response: response, err: err}
	})
	defer cancel()

	for {
		select {
		case event := <-events:
			if event.err != nil {
				return event.err
			}
			if err := printSearchResponse(w, event.response, opts.jsonOut); err != nil {
				return err
			}
			if event.response.IsFinished {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func printSearchResponse(w io.Writer, response *search.SearchResponse, jsonOut bool) error {
	if jsonOut {
		return printJSON(w, response)
	}

	stage := "local"
	if response.IsFinished {
		stage = "final"
	}
	fmt.Fprintf(w, "%s results for %q (%d total)\n", stage, response.Query, response.Results.TotalCount)
	for i, result := range response.Results.Results {
		fmt.Fprintf(w, "%3d. %-50s %8.3f  %s\n", i+1, result.Doc.Title, result.Score, result.Doc.Link)
	}
	for _, person := range response.Results.PeopleResults {
		fmt.Fprintf(w, "     %s (%d docs)\n", person.Person.DisplayName, person.DocCount)
	}
	return nil
}
