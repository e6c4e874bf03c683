package main

import (
	"context"

	"github.com/meghashyamc/docdisco/api"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *opts)
		},
	}
}

func runServe(ctx context.Context, opts rootOptions) error {
	cfg, logger, err := opts.load()
	if err != nil {
		return err
	}
	return api.Run(ctx, logger, cfg)
}
