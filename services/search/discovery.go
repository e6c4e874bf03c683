package search

import (
	"context"
	"sort"

	"github.com/meghashyamc/docdisco/db/docstore"
	"github.com/meghashyamc/docdisco/models"
	"golang.org/x/sync/errgroup"
)

const (
	// DiscoResultLimit caps each side of a discovery response.
	DiscoResultLimit = 4
	// MinViewedIncluded recently viewed documents are always part of my documents.
	MinViewedIncluded = 2
	// FarFutureTimestamp is about the year 2100, in Unix milliseconds.
	FarFutureTimestamp = 4000111000111

	editedCandidates   = 100
	modifiedCandidates = 100
)

type DiscoveryResponse struct {
	MyDocs  models.SearchResultSet `json:"my_docs"`
	OrgDocs models.SearchResultSet `json:"org_docs"`
}

// QueryDiscovery picks a few documents I am likely working on and a few that
// others changed recently and I have never edited. No document appears on
// both sides.
func (e *Engine) QueryDiscovery(ctx context.Context) (*DiscoveryResponse, error) {
	var viewed, edited, modified []models.Document

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		viewed, err = e.store.ListByIndex(groupCtx, docstore.IndexViewed, docstore.Desc, DiscoResultLimit)
		return err
	})
	group.Go(func() error {
		var err error
		edited, err = e.store.ListByIndex(groupCtx, docstore.IndexModifiedByMe, docstore.Desc, editedCandidates)
		return err
	})
	group.Go(func() error {
		var err error
		modified, err = e.store.ListByIndex(groupCtx, docstore.IndexModified, docstore.Desc, modifiedCandidates)
		return err
	})
	if err := group.Wait(); err != nil {
		e.logger.Error("discovery query failed", "err", err.Error())
		return nil, err
	}

	e.logger.Debug("building discovery result", "viewed", len(viewed), "edited", len(edited), "modified", len(modified))

	myDocs := selectMyDocs(viewed, edited)
	orgDocs := selectOrgDocs(modified, myDocs)

	return &DiscoveryResponse{
		MyDocs:  e.scorer.Rerank(asResults(myDocs.docs), nil, DiscoResultLimit),
		OrgDocs: e.scorer.Rerank(asResults(orgDocs), nil, DiscoResultLimit),
	}, nil
}

// discoveryKey orders by view time when known. Documents known only by
// modification time sort below every viewed document.
func discoveryKey(doc models.Document) int64 {
	if doc.ViewedTimestamp != 0 {
		return doc.ViewedTimestamp
	}
	return doc.ModificationTimestamp - FarFutureTimestamp
}

type docSet struct {
	docs []models.Document
	ids  map[string]bool
}

func newDocSet() *docSet {
	return &docSet{ids: make(map[string]bool)}
}

func (s *docSet) add(doc models.Document) bool {
	if s.ids[doc.ID] {
		return false
	}
	s.ids[doc.ID] = true
	s.docs = append(s.docs, doc)
	return true
}

func (s *docSet) full() bool {
	return len(s.docs) >= DiscoResultLimit
}

func selectMyDocs(viewed []models.Document, edited []models.Document) *docSet {
	included := newDocSet()
	for i := 0; i < len(viewed) && i < MinViewedIncluded; i++ {
		included.add(viewed[i])
	}

	candidates := make([]models.Document, 0, len(edited))
	for _, doc := range edited {
		if !included.ids[doc.ID] {
			candidates = append(candidates, doc)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return discoveryKey(candidates[i]) > discoveryKey(candidates[j])
	})
	for _, doc := range candidates {
		if included.full() {
			break
		}
		included.add(doc)
	}

	for i := MinViewedIncluded; i < len(viewed) && !included.full(); i++ {
		included.add(viewed[i])
	}

	return included
}

func selectOrgDocs(modified []models.Document, myDocs *docSet) []models.Document {
	var orgDocs []models.Document
	for _, doc := range modified {
		if len(orgDocs) >= DiscoResultLimit {
			break
		}
		if doc.EditedTimestamp != 0 || myDocs.ids[doc.ID] {
			continue
		}
		orgDocs = append(orgDocs, doc)
	}
	return orgDocs
}

func asResults(docs []models.Document) []models.SearchResult {
	results := make([]models.SearchResult, len(docs))
	for i, doc := range docs {
		results[i] = models.NewSearchResult(doc)
	}
	return results
}
