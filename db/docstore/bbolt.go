package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/meghashyamc/docdisco/config"
	"github.com/meghashyamc/docdisco/logger"
	"github.com/meghashyamc/docdisco/models"
	bolt "go.etcd.io/bbolt"
)

const (
	documentsBucket             = "documents"
	contentsBucket              = "contents"
	contributionsBucket         = "contributions"
	contributionsByAuthorBucket = "contributions_by_author"
	requestsBucket              = "requests"
)

type BoltDB struct {
	store  *bolt.DB
	logger logger.Logger
}

var _ DB = (*BoltDB)(nil)

func New(logger logger.Logger, cfg *config.Config) (*BoltDB, error) {
	return Open(logger, cfg.GetStorePath())
}

// Open opens (or creates) the store file at path.
func Open(logger logger.Logger, path string) (*BoltDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		logger.Error("failed to create document store directory", "err", err.Error(), "path", path)
		return nil, fmt.Errorf("failed to create document store directory: %w", err)
	}

	store, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		logger.Error("failed to open document store", "err", err.Error(), "path", path)
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}

	boltDB := &BoltDB{
		store:  store,
		logger: logger,
	}

	if err := boltDB.initBuckets(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return boltDB, nil
}

func dataBuckets() []string {
	buckets := []string{documentsBucket, contentsBucket, contributionsBucket, contributionsByAuthorBucket}
	for _, spec := range indexSpecs {
		buckets = append(buckets, spec.bucket)
	}
	return buckets
}

func (b *BoltDB) initBuckets() error {
	return b.store.Update(func(tx *bolt.Tx) error {
		for _, name := range append(dataBuckets(), requestsBucket) {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				b.logger.Error("failed to create bucket", "bucket", name, "err", err.Error())
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

func (b *BoltDB) view(ctx context.Context, op string, fn func(tx *bolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.wrap(op, b.store.View(fn))
}

func (b *BoltDB) update(ctx context.Context, op string, fn func(tx *bolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.wrap(op, b.store.Update(fn))
}

// wrap leaves typed errors alone and reports everything else as a storage failure.
func (b *BoltDB) wrap(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidKey) {
		return err
	}
	b.logger.Error("document store operation failed", "op", op, "err", err.Error())
	return &StorageError{Op: op, Err: err}
}

func validKey(id string) error {
	if id == "" {
		return &InvalidKeyError{Key: id, Reason: "key cannot be empty"}
	}
	return nil
}

func getDocument(bucket *bolt.Bucket, id string) (*models.Document, error) {
	data := bucket.Get([]byte(id))
	if data == nil {
		return nil, nil
	}
	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return &doc, nil
}

func (b *BoltDB) Get(ctx context.Context, id string) (*models.Document, error) {
	if err := validKey(id); err != nil {
		return nil, err
	}

	var doc *models.Document
	err := b.view(ctx, "get", func(tx *bolt.Tx) error {
		found, err := getDocument(tx.Bucket([]byte(documentsBucket)), id)
		if err != nil {
			return err
		}
		if found == nil {
			return &NotFoundError{Bucket: documentsBucket, Key: id}
		}
		doc = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetMany returns the documents that exist, in the order of ids. Missing and
// repeated ids are skipped.
func (b *BoltDB) GetMany(ctx context.Context, ids []string) ([]models.Document, error) {
	docs := make([]models.Document, 0, len(ids))
	err := b.view(ctx, "get_many", func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(documentsBucket))
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true

			doc, err := getDocument(bucket, id)
			if err != nil {
				return err
			}
			if doc != nil {
				docs = append(docs, *doc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// PutMany upserts documents and keeps the timestamp indexes in step. A stored
// document with a strictly higher version is left in place.
func (b *BoltDB) PutMany(ctx context.Context, docs []models.Document) error {
	for _, doc := range docs {
		if err := validKey(doc.ID); err != nil {
			return err
		}
	}

	return b.update(ctx, "put_many", func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(documentsBucket))
		for _, doc := range docs {
			existing, err := getDocument(bucket, doc.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				if existing.Version > doc.Version {
					b.logger.Debug("keeping newer stored document", "id", doc.ID, "stored_version", existing.Version, "version", doc.Version)
					continue
				}
				if err := deleteIndexEntries(tx, *existing); err != nil {
					return err
				}
			}

			data, err := json.Marshal(doc)
			if err != nil {
				return fmt.Errorf("failed to encode document %s: %w", doc.ID, err)
			}
			if err := bucket.Put([]byte(doc.ID), data); err != nil {
				return fmt.Errorf("failed to put document %s: %w", doc.ID, err)
			}
			if err := putIndexEntries(tx, doc); err != nil {
				return err
			}
		}
		return nil
	})
}

func putIndexEntries(tx *bolt.Tx, doc models.Document) error {
	for _, spec := range indexSpecs {
		ts := spec.timestamp(doc)
		if ts == 0 {
			continue
		}
		if err := tx.Bucket([]byte(spec.bucket)).Put(indexKey(ts, doc.ID), []byte(doc.ID)); err != nil {
			return fmt.Errorf("failed to put %s entry for %s: %w", spec.bucket, doc.ID, err)
		}
	}
	return nil
}

func deleteIndexEntries(tx *bolt.Tx, doc models.Document) error {
	for _, spec := range indexSpecs {
		ts := spec.timestamp(doc)
		if ts == 0 {
			continue
		}
		if err := tx.Bucket([]byte(spec.bucket)).Delete(indexKey(ts, doc.ID)); err != nil {
			return fmt.Errorf("failed to delete %s entry for %s: %w", spec.bucket, doc.ID, err)
		}
	}
	return nil
}

// ListByIndex walks a timestamp index in the given direction. limit <= 0
// means no limit.
func (b *BoltDB) ListByIndex(ctx context.Context, index Index, direction Direction, limit int) ([]models.Document, error) {
	spec, ok := indexSpecs[index]
	if !ok {
		return nil, &InvalidKeyError{Key: string(index), Reason: "unknown index"}
	}

	var docs []models.Document
	err := b.view(ctx, "list_by_index", func(tx *bolt.Tx) error {
		documents := tx.Bucket([]byte(documentsBucket))
		cursor := tx.Bucket([]byte(spec.bucket)).Cursor()

		next := cursor.Next
		k, v := cursor.First()
		if direction == Desc {
			next = cursor.Prev
			k, v = cursor.Last()
		}

		for ; k != nil; k, v = next() {
			if limit > 0 && len(docs) >= limit {
				break
			}
			doc, err := getDocument(documents, string(v))
			if err != nil {
				return err
			}
			if doc == nil {
				b.logger.Warn("index entry points at missing document", "index", string(index), "id", string(v))
				continue
			}
			docs = append(docs, *doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (b *BoltDB) GetContentMany(ctx context.Context, ids []string) ([]models.DocumentContent, error) {
	contents := make([]models.DocumentContent, 0, len(ids))
	err := b.view(ctx, "get_content_many", func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(contentsBucket))
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true

			data := bucket.Get([]byte(id))
			if data == nil {
				continue
			}
			var content models.DocumentContent
			if err := json.Unmarshal(data, &content); err != nil {
				return fmt.Errorf("failed to decode content %s: %w", id, err)
			}
			contents = append(contents, content)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contents, nil
}

// PutContent stores a document body unless a strictly newer version is
// already stored.
func (b *BoltDB) PutContent(ctx context.Context, content models.DocumentContent) error {
	if err := validKey(content.ID); err != nil {
		return err
	}

	data, err := json.Marshal(content)
	if err != nil {
		return &StorageError{Op: "put_content", Err: err}
	}
	return b.update(ctx, "put_content", func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(contentsBucket))
		if stored := bucket.Get([]byte(content.ID)); stored != nil {
			var existing models.DocumentContent
			if err := json.Unmarshal(stored, &existing); err != nil {
				return fmt.Errorf("failed to decode content %s: %w", content.ID, err)
			}
			if existing.Version > content.Version {
				b.logger.Debug("keeping newer stored content", "id", content.ID, "stored_version", existing.Version, "version", content.Version)
				return nil
			}
		}
		return bucket.Put([]byte(content.ID), data)
	})
}

// PutContributions stores contributions keyed by (doc, version). Contributions
// without an author are stored but not indexed by author.
func (b *BoltDB) PutContributions(ctx context.Context, contribs []models.Contribution) error {
	for _, c := range contribs {
		if err := validKey(c.DocID); err != nil {
			return err
		}
	}

	return b.update(ctx, "put_contributions", func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(contributionsBucket))
		byAuthor := tx.Bucket([]byte(contributionsByAuthorBucket))
		for _, c := range contribs {
			key := contributionKey(c.DocID, c.Version)
			if previous := bucket.Get(key); previous != nil {
				var old models.Contribution
				if err := json.Unmarshal(previous, &old); err == nil && old.Author != nil {
					if err := byAuthor.Delete(authorKey(old)); err != nil {
						return err
					}
				}
			}

			data, err := json.Marshal(c)
			if err != nil {
				return fmt.Errorf("failed to encode contribution for %s: %w", c.DocID, err)
			}
			if err := bucket.Put(key, data); err != nil {
				return err
			}
			if c.Author != nil && c.Author.ID != "" {
				if err := byAuthor.Put(authorKey(c), key); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func decodeContribution(data []byte) (models.Contribution, error) {
	var c models.Contribution
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("failed to decode contribution: %w", err)
	}
	return c, nil
}

func (b *BoltDB) FindContributionsForDocs(ctx context.Context, docIDs []string) ([]models.Contribution, error) {
	var contribs []models.Contribution
	err := b.view(ctx, "find_contributions_for_docs", func(tx *bolt.Tx) error {
		cursor := tx.Bucket([]byte(contributionsBucket)).Cursor()
		seen := make(map[string]bool, len(docIDs))
		for _, id := range docIDs {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true

			prefix := contributionPrefix(id)
			for k, v := cursor.Seek(prefix); hasPrefix(k, prefix); k, v = cursor.Next() {
				c, err := decodeContribution(v)
				if err != nil {
					return err
				}
				contribs = append(contribs, c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contribs, nil
}

// FindContributionsByAuthor returns an author's contributions, oldest first.
func (b *BoltDB) FindContributionsByAuthor(ctx context.Context, authorID string) ([]models.Contribution, error) {
	if err := validKey(authorID); err != nil {
		return nil, err
	}

	var contribs []models.Contribution
	err := b.view(ctx, "find_contributions_by_author", func(tx *bolt.Tx) error {
		contributions := tx.Bucket([]byte(contributionsBucket))
		cursor := tx.Bucket([]byte(contributionsByAuthorBucket)).Cursor()
		prefix := authorPrefix(authorID)
		for k, v := cursor.Seek(prefix); hasPrefix(k, prefix); k, v = cursor.Next() {
			data := contributions.Get(v)
			if data == nil {
				continue
			}
			c, err := decodeContribution(data)
			if err != nil {
				return err
			}
			contribs = append(contribs, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contribs, nil
}

// Clear drops all documents, contents and contributions. Refresh request
// statuses survive.
func (b *BoltDB) Clear(ctx context.Context) error {
	return b.update(ctx, "clear", func(tx *bolt.Tx) error {
		for _, name := range dataBuckets() {
			if err := tx.DeleteBucket([]byte(name)); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return fmt.Errorf("failed to delete bucket %s: %w", name, err)
			}
			if _, err := tx.CreateBucket([]byte(name)); err != nil {
				return fmt.Errorf("failed to recreate bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

func (b *BoltDB) SetRequestStatus(ctx context.Context, requestID string, status int) error {
	if err := validKey(requestID); err != nil {
		return err
	}
	return b.update(ctx, "set_request_status", func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(requestsBucket)).Put([]byte(requestID), []byte(strconv.Itoa(status)))
	})
}

func (b *BoltDB) GetRequestStatus(ctx context.Context, requestID string) (int, error) {
	if err := validKey(requestID); err != nil {
		return 0, err
	}

	var status int
	err := b.view(ctx, "get_request_status", func(tx *bolt.Tx) error {
		value := tx.Bucket([]byte(requestsBucket)).Get([]byte(requestID))
		if value == nil {
			return &NotFoundError{Bucket: requestsBucket, Key: requestID}
		}
		parsed, err := strconv.Atoi(string(value))
		if err != nil {
			return fmt.Errorf("failed to parse status for request %s: %w", requestID, err)
		}
		status = parsed
		return nil
	})
	return status, err
}

func (b *BoltDB) Close() error {
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}
