package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meghashyamc/docdisco/api"
	"github.com/meghashyamc/docdisco/logger"
	"github.com/meghashyamc/docdisco/services/index"
	"github.com/spf13/cobra"
)

const refreshPollInterval = 250 * time.Millisecond

func newRefreshCmd(root *rootOptions) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch documents from Drive and rebuild the local index",
		Long: `Fetch documents from Drive and rebuild the local index.

Modes:
  all          page through every document (default)
  interesting  only my recent and recently viewed documents
  reload       rebuild the index from already fetched documents`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withDependencies(cmd.Context(), func(ctx context.Context, logger logger.Logger, deps *api.Dependencies) error {
				return runRefresh(ctx, cmd, deps.Refresher, index.Mode(mode))
			})
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(index.ModeAll), "Refresh mode: all, interesting, reload")

	return cmd
}

func runRefresh(ctx context.Context, cmd *cobra.Command, refresher *index.Service, mode index.Mode) error {
	requestID := uuid.NewString()
	if err := refresher.Refresh(ctx, mode, requestID); err != nil {
		return err
	}

	ticker := time.NewTicker(refreshPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		status, err := refresher.GetStatus(ctx, requestID)
		if err != nil {
			return err
		}
		switch status {
		case index.ProgressStatusComplete:
			fmt.Fprintf(cmd.OutOrStdout(), "refresh %s complete\n", requestID)
			return nil
		case index.ProgressStatusFailed:
			return fmt.Errorf("refresh %s failed", requestID)
		}
	}
}
