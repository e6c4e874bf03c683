package search

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/meghashyamc/docdisco/models"
	"github.com/meghashyamc/docdisco/remote"
	"golang.org/x/sync/errgroup"
)

// SearchResponse is one of the responses to a query. The last response for a
// query has IsFinished set.
type SearchResponse struct {
	Query      string                 `json:"query"`
	Results    models.SearchResultSet `json:"results"`
	IsFinished bool                   `json:"is_finished"`
}

// Callback receives either a response or the error that ended the query.
type Callback func(response *SearchResponse, err error)

// CancelFunc abandons the delegate leg of a query if it is still pending. It
// reports whether it did; once the remote call has resolved the merged
// response is emitted regardless.
type CancelFunc func() bool

const (
	delegatePending int32 = iota
	delegateResolved
	delegateCancelled
)

type localPhase struct {
	results []models.SearchResult
	people  []models.PersonResult
	hitIDs  map[string]bool
	err     error
}

// QuerySearch searches the local index and, if delegate is set, the remote
// delegate too. The callback is invoked first with local results and then, if
// the delegate leg completes, with the merged results. A local failure is
// reported through the callback and ends the query.
func (e *Engine) QuerySearch(ctx context.Context, q string, limit int, delegate bool, callback Callback) CancelFunc {
	delegate = delegate && e.delegate != nil

	delegateCtx, cancelDelegate := context.WithCancel(ctx)
	var state atomic.Int32
	local := make(chan localPhase, 1)

	go func() {
		phase := e.searchLocal(ctx, q)
		if phase.err != nil {
			e.logger.Error("local search failed", "query", q, "err", phase.err.Error())
			cancelDelegate()
			callback(nil, phase.err)
		} else {
			callback(&SearchResponse{
				Query:      q,
				Results:    e.scorer.Rerank(phase.results, phase.people, limit),
				IsFinished: !delegate,
			}, nil)
		}
		local <- phase
	}()

	if !delegate {
		cancelDelegate()
		return func() bool { return false }
	}

	go func() {
		defer cancelDelegate()
		e.runDelegate(delegateCtx, q, limit, local, &state, callback)
	}()

	return func() bool {
		if !state.CompareAndSwap(delegatePending, delegateCancelled) {
			e.logger.Debug("too late to cancel delegate query", "query", q)
			return false
		}
		e.logger.Debug("cancelling delegate query", "query", q)
		cancelDelegate()
		return true
	}
}

func (e *Engine) searchLocal(ctx context.Context, q string) localPhase {
	hits, err := e.index.Search(ctx, q)
	if err != nil {
		return localPhase{err: err}
	}

	ids := make([]string, 0, len(hits))
	scores := make(map[string]float64, len(hits))
	hitIDs := make(map[string]bool, len(hits))
	for _, hit := range hits {
		if hitIDs[hit.ID] {
			continue
		}
		hitIDs[hit.ID] = true
		ids = append(ids, hit.ID)
		scores[hit.ID] = hit.Score
	}

	var docs []models.Document
	var people []models.PersonResult
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		docs, err = e.store.GetMany(groupCtx, ids)
		return err
	})
	group.Go(func() error {
		var err error
		people, err = e.QueryPeopleForDocuments(groupCtx, ids)
		return err
	})
	if err := group.Wait(); err != nil {
		return localPhase{err: err}
	}

	results := make([]models.SearchResult, len(docs))
	for i, doc := range docs {
		score, ok := scores[doc.ID]
		if !ok {
			score = models.DefaultScore
		}
		results[i] = models.NewScoredSearchResult(doc, score)
	}

	return localPhase{results: results, people: people, hitIDs: hitIDs}
}

// runDelegate waits out the debounce, queries the delegate and, once the
// local phase is done, emits the merged response. Nothing is emitted if ctx
// is cancelled before the remote call resolves or if the local phase failed.
// Resolving and cancelling race on state; whichever swaps first wins.
func (e *Engine) runDelegate(ctx context.Context, q string, limit int, local <-chan localPhase, state *atomic.Int32, callback Callback) {
	remoteResults, ok := e.searchDelegate(ctx, q)
	if !state.CompareAndSwap(delegatePending, delegateResolved) || ctx.Err() != nil {
		ok = false
	}

	phase := <-local
	if !ok || phase.err != nil {
		return
	}

	results := phase.results
	people := phase.people
	if len(remoteResults) > 0 {
		results = make([]models.SearchResult, 0, len(phase.results)+len(remoteResults))
		results = append(results, phase.results...)
		ids := make([]string, 0, cap(results))
		for _, r := range phase.results {
			ids = append(ids, r.Doc.ID)
		}

		seen := make(map[string]bool, len(remoteResults))
		for _, r := range remoteResults {
			if phase.hitIDs[r.Doc.ID] || seen[r.Doc.ID] {
				continue
			}
			seen[r.Doc.ID] = true
			results = append(results, r)
			ids = append(ids, r.Doc.ID)
		}

		merged, err := e.QueryPeopleForDocuments(context.WithoutCancel(ctx), ids)
		if err != nil {
			e.logger.Error("could not attribute merged results", "query", q, "err", err.Error())
		} else {
			people = merged
		}
	}

	callback(&SearchResponse{
		Query:      q,
		Results:    e.scorer.Rerank(results, people, limit),
		IsFinished: true,
	}, nil)
}

// searchDelegate returns the remote results for q. ok is false only when ctx
// was cancelled; remote failures are logged and yield no results.
func (e *Engine) searchDelegate(ctx context.Context, q string) ([]models.SearchResult, bool) {
	timer := time.NewTimer(e.debounce)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, false
	case <-timer.C:
	}

	set, err := e.delegate.Search(ctx, q, 0)
	if ctx.Err() != nil {
		return nil, false
	}
	if err != nil {
		if remote.IsTransport(err) {
			e.logger.Debug("delegate search failed in transport", "query", q, "err", err.Error())
		} else if !errors.Is(err, context.Canceled) {
			e.logger.Error("delegate search failed", "query", q, "err", err.Error())
		}
		return nil, true
	}
	if set == nil {
		return nil, true
	}
	return set.Results, true
}
