package docstore

import (
	"context"

	"github.com/meghashyamc/docdisco/models"
)

// DB is the ordered, range-queryable document store. A document missing a
// timestamp is absent from the index for that timestamp.
type DB interface {
	Get(ctx context.Context, id string) (*models.Document, error)
	GetMany(ctx context.Context, ids []string) ([]models.Document, error)
	PutMany(ctx context.Context, docs []models.Document) error
	ListByIndex(ctx context.Context, index Index, direction Direction, limit int) ([]models.Document, error)

	GetContentMany(ctx context.Context, ids []string) ([]models.DocumentContent, error)
	PutContent(ctx context.Context, content models.DocumentContent) error

	PutContributions(ctx context.Context, contribs []models.Contribution) error
	FindContributionsForDocs(ctx context.Context, docIDs []string) ([]models.Contribution, error)
	FindContributionsByAuthor(ctx context.Context, authorID string) ([]models.Contribution, error)

	Clear(ctx context.Context) error
	Close() error
}
