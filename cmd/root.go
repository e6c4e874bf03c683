package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/meghashyamc/docdisco/api"
	"github.com/meghashyamc/docdisco/config"
	"github.com/meghashyamc/docdisco/logger"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	env      string
	logLevel string
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:   "docdisco",
		Short: "Search and discover your documents",
		Long: `docdisco keeps a local full-text index of your Drive documents,
searches it together with Drive itself, and suggests documents worth
revisiting.

Running docdisco without a subcommand starts the HTTP server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.env, "env", "", "Config environment to load (defaults to $ENV or local)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")

	cmd.AddCommand(newServeCmd(&opts))
	cmd.AddCommand(newSearchCmd(&opts))
	cmd.AddCommand(newDiscoverCmd(&opts))
	cmd.AddCommand(newRefreshCmd(&opts))

	return cmd
}

func (o *rootOptions) load() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(o.env)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := o.logLevel
	if level == "" {
		level = cfg.GetLogLevel()
	}
	return cfg, logger.New(level), nil
}

// withDependencies runs fn against freshly opened dependencies and closes
// them afterwards.
func (o *rootOptions) withDependencies(ctx context.Context, fn func(ctx context.Context, logger logger.Logger, deps *api.Dependencies) error) error {
	cfg, logger, err := o.load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	deps, err := api.NewDependencies(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	return fn(ctx, logger, deps)
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
