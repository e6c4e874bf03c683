// Package remote defines the contracts of third-party document services that
// can be listed, fetched from and searched.
package remote

import (
	"context"

	"github.com/meghashyamc/docdisco/models"
)

// ListingResult is one page of an integration's documents. An empty
// Continuation means there are no further pages.
type ListingResult struct {
	Items        []models.Document
	Continuation string
}

// ContentResult is the fetched content and revision history of a document.
type ContentResult struct {
	Content       models.DocumentContent
	Contributions []models.Contribution
}

// Delegate executes a query against a remote service's own search. Calls must
// honour ctx cancellation.
type Delegate interface {
	Search(ctx context.Context, q string, limit int) (*models.SearchResultSet, error)
}

// Integration is a remote service that can be indexed and searched.
type Integration interface {
	Delegate

	Name() string

	// ListAllFiles lists documents in pages of at most count.
	ListAllFiles(ctx context.Context, count int, continuation string) (*ListingResult, error)

	// ListInterestingFiles lists documents likely to matter right now, for discovery.
	ListInterestingFiles(ctx context.Context, count int) ([]models.Document, error)

	FetchContent(ctx context.Context, docs []models.Document) ([]ContentResult, error)
}
