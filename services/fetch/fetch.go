package fetch

import (
	"context"
	"fmt"
	"sync"

	"github.com/meghashyamc/docdisco/logger"
	"github.com/meghashyamc/docdisco/models"
	"github.com/meghashyamc/docdisco/remote"
	"github.com/panjf2000/ants/v2"
)

const (
	FetchInterestingCount   = 25
	PageSize                = 150
	ContentBatchSize        = 10
	ContentFetchConcurrency = 2
)

// Store is the part of the document store written by fetches.
type Store interface {
	PutMany(ctx context.Context, docs []models.Document) error
	GetContentMany(ctx context.Context, ids []string) ([]models.DocumentContent, error)
	PutContent(ctx context.Context, content models.DocumentContent) error
	PutContributions(ctx context.Context, contribs []models.Contribution) error
	Clear(ctx context.Context) error
}

// Fetcher copies document listings and content from an integration into the
// document store.
type Fetcher struct {
	logger        logger.Logger
	integration   remote.Integration
	store         Store
	contentPool   *ants.Pool
	fetchCount    int
	fulltextCount int
}

// New builds a fetcher that pulls at most fetchCount documents on a full
// refresh, and full text for the first fulltextCount of them.
func New(logger logger.Logger, integration remote.Integration, store Store, fetchCount int, fulltextCount int) (*Fetcher, error) {
	contentPool, err := ants.NewPool(ContentFetchConcurrency)
	if err != nil {
		logger.Error("could not create content fetch pool", "err", err.Error())
		return nil, fmt.Errorf("failed to create content fetch pool: %w", err)
	}

	return &Fetcher{
		logger:        logger,
		integration:   integration,
		store:         store,
		contentPool:   contentPool,
		fetchCount:    fetchCount,
		fulltextCount: fulltextCount,
	}, nil
}

// RefreshInterestingDocs stores the integration's currently interesting
// documents and returns their ids.
func (f *Fetcher) RefreshInterestingDocs(ctx context.Context) ([]string, error) {
	f.logger.Info("beginning refresh of interesting docs", "integration", f.integration.Name())

	docs, err := f.integration.ListInterestingFiles(ctx, FetchInterestingCount)
	if err != nil {
		f.recordFailure(err, "refresh interesting docs")
		return nil, err
	}
	if err := f.store.PutMany(ctx, docs); err != nil {
		f.recordFailure(err, "refresh interesting docs")
		return nil, err
	}

	f.logger.Info("refreshed interesting docs", "count", len(docs))
	return documentIDs(docs), nil
}

// RefreshAllDocs pages through every document of the integration until the
// listing ends or fetchCount documents have been stored. It returns the ids
// stored so far, also when it stops early.
func (f *Fetcher) RefreshAllDocs(ctx context.Context) ([]string, error) {
	f.logger.Info("beginning refresh of all docs", "integration", f.integration.Name())

	var fetchedIDs []string
	contentFetched := 0
	continuation := ""

	for {
		if err := ctx.Err(); err != nil {
			f.logger.Info("refresh of all docs cancelled", "fetched", len(fetchedIDs))
			return fetchedIDs, err
		}

		page, err := f.integration.ListAllFiles(ctx, PageSize, continuation)
		if err != nil {
			f.recordFailure(err, "refresh all docs")
			return fetchedIDs, err
		}
		f.logger.Debug("received docs", "count", len(page.Items), "continuation", page.Continuation)

		if err := f.store.PutMany(ctx, page.Items); err != nil {
			f.recordFailure(err, "refresh all docs")
			return fetchedIDs, err
		}

		if contentFetched < f.fulltextCount {
			toFetch := min(f.fulltextCount-contentFetched, len(page.Items))
			contentFetched += toFetch
			if err := f.FetchFullContent(ctx, page.Items[:toFetch]); err != nil {
				f.recordFailure(err, "fetch content")
			}
		}

		fetchedIDs = append(fetchedIDs, documentIDs(page.Items)...)
		if page.Continuation == "" || len(fetchedIDs) >= f.fetchCount {
			break
		}
		continuation = page.Continuation
	}

	f.logger.Info("refresh of all docs done", "fetched", len(fetchedIDs))
	return fetchedIDs, nil
}

// FetchFullContent fetches content for the documents whose stored content is
// older than the document version. Batches are fetched concurrently on the
// content pool. Content is not stored once ctx is cancelled.
func (f *Fetcher) FetchFullContent(ctx context.Context, docs []models.Document) error {
	stale, err := f.staleDocuments(ctx, docs)
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	for start := 0; start < len(stale); start += ContentBatchSize {
		batch := stale[start:min(start+ContentBatchSize, len(stale))]

		wg.Add(1)
		err := f.contentPool.Submit(func() {
			defer wg.Done()
			f.fetchBatch(ctx, batch)
		})
		if err != nil {
			wg.Done()
			f.logger.Error("could not schedule content fetch", "err", err.Error())
			wg.Wait()
			return fmt.Errorf("failed to schedule content fetch: %w", err)
		}
	}
	wg.Wait()

	return ctx.Err()
}

// staleDocuments drops documents whose stored content is at least as new as
// the document itself.
func (f *Fetcher) staleDocuments(ctx context.Context, docs []models.Document) ([]models.Document, error) {
	existing, err := f.store.GetContentMany(ctx, documentIDs(docs))
	if err != nil {
		return nil, err
	}

	versions := make(map[string]int64, len(existing))
	for _, content := range existing {
		versions[content.ID] = content.Version
	}

	var stale []models.Document
	for _, doc := range docs {
		if version, ok := versions[doc.ID]; ok && version != 0 && version >= doc.Version {
			continue
		}
		stale = append(stale, doc)
	}
	return stale, nil
}

func (f *Fetcher) fetchBatch(ctx context.Context, batch []models.Document) {
	results, err := f.integration.FetchContent(ctx, batch)
	if err != nil {
		f.recordFailure(err, "fetch content")
		return
	}
	f.logger.Debug("fetched content for stale docs", "fetched", len(results), "stale", len(batch))

	if ctx.Err() != nil {
		return
	}
	for _, result := range results {
		if err := f.store.PutContent(ctx, result.Content); err != nil {
			f.logger.Error("failed to store content", "id", result.Content.ID, "err", err.Error())
		}
		if len(result.Contributions) == 0 {
			continue
		}
		if err := f.store.PutContributions(ctx, result.Contributions); err != nil {
			f.logger.Error("failed to store contributions", "id", result.Content.ID, "err", err.Error())
		}
	}
}

// Clear removes every stored document.
func (f *Fetcher) Clear(ctx context.Context) error {
	if err := f.store.Clear(ctx); err != nil {
		f.logger.Error("failed to clear document store", "err", err.Error())
		return err
	}
	f.logger.Info("document store cleared")
	return nil
}

// Close releases the content pool.
func (f *Fetcher) Close() {
	f.contentPool.Release()
}

func (f *Fetcher) recordFailure(err error, during string) {
	if remote.IsTransport(err) {
		f.logger.Debug("fetch failed in transport", "during", during, "err", err.Error())
		return
	}
	f.logger.Error("fetch failed", "during", during, "err", err.Error())
}

func documentIDs(docs []models.Document) []string {
	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
	}
	return ids
}
