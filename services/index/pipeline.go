package index

import (
	"context"
	"errors"
	"time"

	"github.com/meghashyamc/docdisco/db/docstore"
	"github.com/meghashyamc/docdisco/logger"
	"github.com/meghashyamc/docdisco/models"
)

// Indexer is the local index as written by the pipeline.
type Indexer interface {
	AddMany(ctx context.Context, docs []models.Document, contents []*models.DocumentContent) error
	Clear(ctx context.Context) error
}

// Store is the part of the document store read while indexing.
type Store interface {
	GetMany(ctx context.Context, ids []string) ([]models.Document, error)
	ListByIndex(ctx context.Context, index docstore.Index, direction docstore.Direction, limit int) ([]models.Document, error)
	GetContentMany(ctx context.Context, ids []string) ([]models.DocumentContent, error)
}

// Pipeline loads documents from the store into the local index.
type Pipeline struct {
	logger        logger.Logger
	indexer       Indexer
	store         Store
	titleCount    int
	fulltextCount int
}

// NewPipeline builds a pipeline that indexes the full text of the
// fulltextCount most recently modified documents and the titles of the next
// titleCount.
func NewPipeline(logger logger.Logger, indexer Indexer, store Store, titleCount int, fulltextCount int) *Pipeline {
	return &Pipeline{
		logger:        logger,
		indexer:       indexer,
		store:         store,
		titleCount:    titleCount,
		fulltextCount: fulltextCount,
	}
}

func (p *Pipeline) Clear(ctx context.Context) error {
	p.logger.Info("dropping index")
	return p.indexer.Clear(ctx)
}

// ReindexDocIDs re-adds the given documents to the index, with their stored
// content when fullText is set.
func (p *Pipeline) ReindexDocIDs(ctx context.Context, ids []string, fullText bool) error {
	p.logger.Info("reindexing docs", "count", len(ids), "full_text", fullText)

	docs, err := p.store.GetMany(ctx, ids)
	if err != nil {
		p.logger.Error("could not load docs to reindex", "err", err.Error())
		return err
	}

	if fullText {
		err = p.indexFullText(ctx, docs)
	} else {
		err = p.indexTitles(ctx, docs)
	}
	if err != nil {
		return err
	}

	p.logger.Info("reindexing done", "count", len(docs))
	return nil
}

// Reload rebuilds the index from the most recently modified documents. Titles
// are indexed even if full-text indexing fails.
func (p *Pipeline) Reload(ctx context.Context) error {
	p.logger.Info("reloading local index")
	begin := time.Now()

	if err := p.indexer.Clear(ctx); err != nil {
		p.logger.Error("could not clear index", "err", err.Error())
		return err
	}

	docs, err := p.store.ListByIndex(ctx, docstore.IndexModified, docstore.Desc, p.titleCount+p.fulltextCount)
	if err != nil {
		p.logger.Error("could not list docs to index", "err", err.Error())
		return err
	}
	p.logger.Debug("loaded documents from store", "count", len(docs))

	split := min(p.fulltextCount, len(docs))
	fullTextErr := p.indexFullText(ctx, docs[:split])
	titleErr := p.indexTitles(ctx, docs[split:])
	if err := errors.Join(fullTextErr, titleErr); err != nil {
		return err
	}

	p.logger.Info("local index constructed", "docs", len(docs), "duration_ms", time.Since(begin).Milliseconds())
	return nil
}

func (p *Pipeline) indexFullText(ctx context.Context, docs []models.Document) error {
	p.logger.Debug("indexing full text", "count", len(docs))

	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
	}
	contents, err := p.store.GetContentMany(ctx, ids)
	if err != nil {
		p.logger.Error("could not load contents", "err", err.Error())
		return err
	}

	byID := make(map[string]*models.DocumentContent, len(contents))
	for i := range contents {
		byID[contents[i].ID] = &contents[i]
	}
	aligned := make([]*models.DocumentContent, len(docs))
	for i, doc := range docs {
		aligned[i] = byID[doc.ID]
	}

	if err := p.indexer.AddMany(ctx, docs, aligned); err != nil {
		p.logger.Error("could not index full text", "err", err.Error())
		return err
	}
	return nil
}

func (p *Pipeline) indexTitles(ctx context.Context, docs []models.Document) error {
	p.logger.Debug("indexing titles", "count", len(docs))

	if err := p.indexer.AddMany(ctx, docs, nil); err != nil {
		p.logger.Error("could not index titles", "err", err.Error())
		return err
	}
	return nil
}
