package searchdb

import (
	"context"

	"github.com/meghashyamc/docdisco/models"
)

type DB interface {
	Add(ctx context.Context, doc models.Document, content *models.DocumentContent) error
	AddMany(ctx context.Context, docs []models.Document, contents []*models.DocumentContent) error
	Search(ctx context.Context, queryString string) ([]models.QueryHit, error)
	Remove(ctx context.Context, id string) (bool, error)
	Clear(ctx context.Context) error
	GetDocCount() (uint64, error)
	Close() error
}
