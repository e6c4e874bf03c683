package searchdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/meghashyamc/docdisco/config"
	"github.com/meghashyamc/docdisco/logger"
	"github.com/meghashyamc/docdisco/models"
)

const IndexingBatchSize = 100

const (
	indexFieldID      = "id"
	indexFieldTitle   = "title"
	indexFieldContent = "content"
)

const (
	boostForTitle   = 10.0
	boostForContent = 1.0
)

type BleveDB struct {
	// Searches share the lock; add, remove and clear take it exclusively.
	mu        sync.RWMutex
	indexPath string
	logger    logger.Logger
	index     bleve.Index
}

// New opens the index under the configured storage path, creating it if
// needed. An empty index path keeps the index in memory.
func New(logger logger.Logger, cfg *config.Config) (*BleveDB, error) {
	indexPath := ""
	if len(cfg.GetIndexPath()) > 0 {
		indexPath = filepath.Join(cfg.GetStoragePath(), cfg.GetIndexPath())
	}

	index, err := openIndex(indexPath)
	if err != nil {
		logger.Error("could not open index", "path", indexPath, "err", err.Error())
		return nil, err
	}
	return &BleveDB{indexPath: indexPath, logger: logger, index: index}, nil
}

// NewMemOnly returns an index that lives only in memory.
func NewMemOnly(logger logger.Logger) (*BleveDB, error) {
	index, err := openIndex("")
	if err != nil {
		return nil, err
	}
	return &BleveDB{logger: logger, index: index}, nil
}

func openIndex(indexPath string) (bleve.Index, error) {
	mapping := createIndexMapping()
	if indexPath == "" {
		return bleve.NewMemOnly(mapping)
	}

	if err := os.MkdirAll(filepath.Dir(indexPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	index, err := bleve.New(indexPath, mapping)
	if err != nil {
		index, err = bleve.Open(indexPath)
	}
	return index, err
}

func createIndexMapping() mapping.IndexMapping {

	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	// Id field - not analyzed so that lookups match exactly
	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	idFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt(indexFieldID, idFieldMapping)

	// Title and content share the stemming analyzer used at query time
	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	docMapping.AddFieldMappingsAt(indexFieldTitle, titleFieldMapping)

	contentFieldMapping := bleve.NewTextFieldMapping()
	contentFieldMapping.Analyzer = en.AnalyzerName
	contentFieldMapping.Store = false // Don't store full content in index
	contentFieldMapping.Index = true  // But do index it for searching
	docMapping.AddFieldMappingsAt(indexFieldContent, contentFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}

// Add indexes a single document, replacing any previous entry with the same id.
// A nil content indexes the title only.
func (b *BleveDB) Add(ctx context.Context, doc models.Document, content *models.DocumentContent) error {
	return b.AddMany(ctx, []models.Document{doc}, []*models.DocumentContent{content})
}

// AddMany indexes documents in batches. contents[i] belongs to docs[i]; a nil
// entry, or a contents slice shorter than docs, indexes the title only.
func (b *BleveDB) AddMany(ctx context.Context, docs []models.Document, contents []*models.DocumentContent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	batch := b.index.NewBatch()

	for i, doc := range docs {
		var content *models.DocumentContent
		if i < len(contents) {
			content = contents[i]
		}

		if _, err := b.remove(ctx, doc.ID); err != nil {
			return err
		}

		if err := batch.Index(doc.ID, marshal(doc, content)); err != nil {
			b.logger.Error("could not index document", "id", doc.ID, "err", err.Error())
			return err
		}

		// Execute batch when it reaches the batch size
		if (i+1)%IndexingBatchSize == 0 {
			if err := b.index.Batch(batch); err != nil {
				b.logger.Error("could not index batch", "err", err.Error())
				return err
			}
			batch = b.index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := b.index.Batch(batch); err != nil {
			b.logger.Error("could not index batch", "err", err.Error())
			return err
		}
	}

	return nil
}

// Search returns every match for the query, best first.
func (b *BleveDB) Search(ctx context.Context, queryString string) ([]models.QueryHit, error) {
	queryString = strings.TrimSpace(queryString)
	if queryString == "" {
		return []models.QueryHit{}, nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	count, err := b.index.DocCount()
	if err != nil {
		b.logger.Error("could not count indexed documents", "err", err.Error())
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if count == 0 {
		return []models.QueryHit{}, nil
	}

	searchRequest := bleve.NewSearchRequestOptions(buildSearchQuery(queryString), int(count), 0, false)

	searchResult, err := b.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		b.logger.Error("search failed", "err", err.Error())
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]models.QueryHit, len(searchResult.Hits))
	for i, hit := range searchResult.Hits {
		hits[i] = models.QueryHit{ID: hit.ID, Score: hit.Score}
	}

	return hits, nil
}

func buildSearchQuery(queryString string) query.Query {

	titleQuery := bleve.NewMatchQuery(queryString)
	titleQuery.SetField(indexFieldTitle)
	titleQuery.SetBoost(boostForTitle)

	contentQuery := bleve.NewMatchQuery(queryString)
	contentQuery.SetField(indexFieldContent)
	contentQuery.SetBoost(boostForContent)

	return bleve.NewDisjunctionQuery(titleQuery, contentQuery)
}

// Contains reports whether a document with exactly this id is indexed.
func (b *BleveDB) Contains(ctx context.Context, id string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.lookup(ctx, id)
}

// Remove drops the document with exactly this id, if present.
func (b *BleveDB) Remove(ctx context.Context, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.remove(ctx, id)
}

func (b *BleveDB) remove(ctx context.Context, id string) (bool, error) {
	found, err := b.lookup(ctx, id)
	if err != nil || !found {
		return false, err
	}
	if err := b.index.Delete(id); err != nil {
		b.logger.Error("could not remove document from index", "id", id, "err", err.Error())
		return false, fmt.Errorf("failed to remove %s: %w", id, err)
	}
	return true, nil
}

// lookup matches the untokenized id field, so ids containing delimiters
// such as "doc:123-x" are found as a whole.
func (b *BleveDB) lookup(ctx context.Context, id string) (bool, error) {
	idQuery := bleve.NewTermQuery(id)
	idQuery.SetField(indexFieldID)

	searchResult, err := b.index.SearchInContext(ctx, bleve.NewSearchRequestOptions(idQuery, 1, 0, false))
	if err != nil {
		b.logger.Error("id lookup failed", "id", id, "err", err.Error())
		return false, fmt.Errorf("id lookup failed: %w", err)
	}
	return len(searchResult.Hits) > 0, nil
}

// Clear drops all entries by recreating the index.
func (b *BleveDB) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.index.Close(); err != nil {
		b.logger.Error("could not close search index", "err", err.Error())
		return err
	}
	if b.indexPath != "" {
		if err := os.RemoveAll(b.indexPath); err != nil {
			b.logger.Error("could not remove search index", "path", b.indexPath, "err", err.Error())
			return err
		}
	}

	index, err := openIndex(b.indexPath)
	if err != nil {
		b.logger.Error("could not recreate search index", "err", err.Error())
		return err
	}
	b.index = index
	b.logger.Info("dropped search index")

	return nil
}

func (b *BleveDB) GetDocCount() (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.index.DocCount()
}

func (b *BleveDB) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.index != nil {
		if err := b.index.Close(); err != nil {
			b.logger.Error("could not close search index", "err", err.Error())
			return err
		}
	}
	return nil
}
