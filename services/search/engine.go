package search

import (
	"context"
	"time"

	"github.com/meghashyamc/docdisco/db/docstore"
	"github.com/meghashyamc/docdisco/logger"
	"github.com/meghashyamc/docdisco/models"
	"github.com/meghashyamc/docdisco/remote"
	"github.com/meghashyamc/docdisco/services/scoring"
)

const DefaultDebounce = 80 * time.Millisecond

// Index is the local full-text index consulted by every search.
type Index interface {
	Search(ctx context.Context, q string) ([]models.QueryHit, error)
}

// DocumentStore is the subset of the document store read by searches.
type DocumentStore interface {
	GetMany(ctx context.Context, ids []string) ([]models.Document, error)
	ListByIndex(ctx context.Context, index docstore.Index, direction docstore.Direction, limit int) ([]models.Document, error)
	FindContributionsForDocs(ctx context.Context, docIDs []string) ([]models.Contribution, error)
}

// Engine answers searches and discovery requests. It holds no per-query
// state: sequencing and superseding queries is up to the caller.
type Engine struct {
	logger   logger.Logger
	index    Index
	store    DocumentStore
	delegate remote.Delegate
	scorer   *scoring.Scorer
	debounce time.Duration
}

type Option func(*Engine)

// WithDebounce sets how long the delegate leg waits before calling the remote.
func WithDebounce(debounce time.Duration) Option {
	return func(e *Engine) {
		e.debounce = debounce
	}
}

func WithScorer(scorer *scoring.Scorer) Option {
	return func(e *Engine) {
		e.scorer = scorer
	}
}

// New builds an engine. A nil delegate disables remote searches.
func New(logger logger.Logger, index Index, store DocumentStore, delegate remote.Delegate, opts ...Option) *Engine {
	e := &Engine{
		logger:   logger,
		index:    index,
		store:    store,
		delegate: delegate,
		scorer:   scoring.New(),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
