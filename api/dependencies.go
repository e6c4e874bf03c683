package api

import (
	"context"
	"errors"

	"github.com/meghashyamc/docdisco/config"
	"github.com/meghashyamc/docdisco/db/docstore"
	"github.com/meghashyamc/docdisco/db/searchdb"
	"github.com/meghashyamc/docdisco/logger"
	"github.com/meghashyamc/docdisco/remote"
	"github.com/meghashyamc/docdisco/remote/gdrive"
	"github.com/meghashyamc/docdisco/services/fetch"
	"github.com/meghashyamc/docdisco/services/index"
	"github.com/meghashyamc/docdisco/services/search"
	"github.com/meghashyamc/docdisco/validation"
)

// Dependencies holds everything the handlers and the CLI commands need.
type Dependencies struct {
	Store     *docstore.BoltDB
	Index     *searchdb.BleveDB
	Engine    *search.Engine
	Pipeline  *index.Pipeline
	Refresher *index.Service
	Validator *validation.Validator
	fetcher   *fetch.Fetcher
}

// NewDependencies opens the store and the index, rebuilds the index from the
// store and wires the Drive integration when one is configured. The refresh
// loop lives until ctx is done.
func NewDependencies(ctx context.Context, logger logger.Logger, cfg *config.Config) (*Dependencies, error) {
	deps := &Dependencies{}

	var err error
	deps.Store, err = docstore.New(logger, cfg)
	if err != nil {
		logger.Error("error creating document store", "err", err.Error())
		return nil, err
	}
	deps.Index, err = searchdb.New(logger, cfg)
	if err != nil {
		logger.Error("error creating search index", "err", err.Error())
		deps.Close()
		return nil, err
	}
	deps.Validator, err = validation.New(logger)
	if err != nil {
		logger.Error("error creating validator", "err", err.Error())
		deps.Close()
		return nil, err
	}

	integration, err := newIntegration(ctx, logger, cfg)
	if err != nil {
		deps.Close()
		return nil, err
	}

	var delegate remote.Delegate
	var fetcher index.Fetcher
	if integration != nil {
		delegate = remote.NewCachedDelegate(logger, integration, cfg.GetDelegateCacheSize(), cfg.GetDelegateCacheTTL())
		deps.fetcher, err = fetch.New(logger, integration, deps.Store, cfg.GetTitleCount()+cfg.GetFulltextCount(), cfg.GetFulltextCount())
		if err != nil {
			deps.Close()
			return nil, err
		}
		fetcher = deps.fetcher
	}

	deps.Engine = search.New(logger, deps.Index, deps.Store, delegate, search.WithDebounce(cfg.GetDelegateDebounce()))
	deps.Pipeline = index.NewPipeline(logger, deps.Index, deps.Store, cfg.GetTitleCount(), cfg.GetFulltextCount())
	if err := deps.Pipeline.Reload(ctx); err != nil {
		logger.Warn("could not reload index from store", "err", err.Error())
	}
	deps.Refresher = index.New(ctx, logger, deps.Pipeline, fetcher, deps.Store, cfg.GetRefreshInterval())

	return deps, nil
}

func newIntegration(ctx context.Context, logger logger.Logger, cfg *config.Config) (remote.Integration, error) {
	if !cfg.IsDelegateEnabled() {
		logger.Info("remote integration disabled")
		return nil, nil
	}
	if cfg.GetDriveAccessToken() == "" && cfg.GetDriveEndpoint() == "" {
		logger.Warn("no drive access token configured, searching locally only")
		return nil, nil
	}

	client, err := gdrive.New(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (d *Dependencies) Close() error {
	var errs []error
	if d.fetcher != nil {
		d.fetcher.Close()
	}
	if d.Index != nil {
		errs = append(errs, d.Index.Close())
	}
	if d.Store != nil {
		errs = append(errs, d.Store.Close())
	}
	return errors.Join(errs...)
}
