package docstore

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/meghashyamc/docdisco/logger"
	"github.com/meghashyamc/docdisco/models"
	"github.com/stretchr/testify/require"
)

func newTestLogger() logger.Logger {
	opts := &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}

func newTestStore(t *testing.T, assert *require.Assertions) *BoltDB {
	store, err := Open(newTestLogger(), filepath.Join(t.TempDir(), "documents.db"))
	assert.NoError(err, "could not open document store")
	t.Cleanup(func() { store.Close() })
	return store
}

func ids(docs []models.Document) []string {
	out := make([]string, len(docs))
	for i, doc := range docs {
		out[i] = doc.ID
	}
	return out
}

func TestGetMissingDocument(t *testing.T) {
	assert := require.New(t)
	store := newTestStore(t, assert)

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(err, ErrNotFound)

	_, err = store.Get(context.Background(), "")
	assert.ErrorIs(err, ErrInvalidKey)
}

func TestGetManyKeepsRequestOrder(t *testing.T) {
	assert := require.New(t)
	store := newTestStore(t, assert)
	ctx := context.Background()

	assert.NoError(store.PutMany(ctx, []models.Document{
		{ID: "a", Title: "A"},
		{ID: "b", Title: "B"},
		{ID: "c", Title: "C"},
	}))

	docs, err := store.GetMany(ctx, []string{"c", "missing", "a", "c", "b"})
	assert.NoError(err)
	assert.Equal([]string{"c", "a", "b"}, ids(docs))

	docs, err = store.GetMany(ctx, nil)
	assert.NoError(err)
	assert.Empty(docs)
}

func TestPutManyKeepsNewerVersion(t *testing.T) {
	assert := require.New(t)
	store := newTestStore(t, assert)
	ctx := context.Background()

	assert.NoError(store.PutMany(ctx, []models.Document{{ID: "a", Title: "Newer", Version: 5, ModificationTimestamp: 500}}))
	assert.NoError(store.PutMany(ctx, []models.Document{{ID: "a", Title: "Older", Version: 3, ModificationTimestamp: 300}}))

	doc, err := store.Get(ctx, "a")
	assert.NoError(err)
	assert.Equal("Newer", doc.Title)

	assert.NoError(store.PutMany(ctx, []models.Document{{ID: "a", Title: "Same", Version: 5, ModificationTimestamp: 600}}))
	doc, err = store.Get(ctx, "a")
	assert.NoError(err)
	assert.Equal("Same", doc.Title)

	docs, err := store.ListByIndex(ctx, IndexModified, Asc, 0)
	assert.NoError(err)
	assert.Equal([]string{"a"}, ids(docs), "the old index entry must be replaced, not duplicated")
	assert.Equal(int64(600), docs[0].ModificationTimestamp)
}

func TestListByIndex(t *testing.T) {
	assert := require.New(t)
	store := newTestStore(t, assert)
	ctx := context.Background()

	assert.NoError(store.PutMany(ctx, []models.Document{
		{ID: "a", ModificationTimestamp: 300, ViewedTimestamp: 10},
		{ID: "b", ModificationTimestamp: 100},
		{ID: "c", ModificationTimestamp: 200, ViewedTimestamp: 30, EditedTimestamp: 5},
		{ID: "d"},
	}))

	testCases := []struct {
		name      string
		index     Index
		direction Direction
		limit     int
		expected  []string
	}{
		{name: "ModifiedAsc", index: IndexModified, direction: Asc, expected: []string{"b", "c", "a"}},
		{name: "ModifiedDesc", index: IndexModified, direction: Desc, expected: []string{"a", "c", "b"}},
		{name: "ModifiedDescLimit", index: IndexModified, direction: Desc, limit: 2, expected: []string{"a", "c"}},
		{name: "ViewedSkipsMissingTimestamps", index: IndexViewed, direction: Desc, expected: []string{"c", "a"}},
		{name: "EditedByMe", index: IndexModifiedByMe, direction: Asc, expected: []string{"c"}},
		{name: "CreatedEmpty", index: IndexCreated, direction: Asc, expected: nil},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			docs, err := store.ListByIndex(ctx, testCase.index, testCase.direction, testCase.limit)
			assert.NoError(err)
			if testCase.expected == nil {
				assert.Empty(docs)
				return
			}
			assert.Equal(testCase.expected, ids(docs))
		})
	}

	_, err := store.ListByIndex(ctx, Index("bogus"), Asc, 0)
	assert.ErrorIs(err, ErrInvalidKey)
}

func TestContents(t *testing.T) {
	assert := require.New(t)
	store := newTestStore(t, assert)
	ctx := context.Background()

	assert.NoError(store.PutContent(ctx, models.DocumentContent{ID: "a", Version: 1, MimeType: "text/plain", Content: "first"}))
	assert.NoError(store.PutContent(ctx, models.DocumentContent{ID: "b", Version: 1, MimeType: "text/plain", Content: "second"}))
	assert.NoError(store.PutContent(ctx, models.DocumentContent{ID: "a", Version: 2, MimeType: "text/plain", Content: "first, edited"}))

	contents, err := store.GetContentMany(ctx, []string{"b", "x", "a"})
	assert.NoError(err)
	assert.Len(contents, 2)
	assert.Equal("second", contents[0].Content)
	assert.Equal("first, edited", contents[1].Content)
	assert.Equal(int64(2), contents[1].Version)

	assert.ErrorIs(store.PutContent(ctx, models.DocumentContent{}), ErrInvalidKey)
}

func TestPutContentKeepsNewerVersion(t *testing.T) {
	testCases := []struct {
		name        string
		version     int64
		wantContent string
	}{
		{name: "older version is dropped", version: 3, wantContent: "v5"},
		{name: "same version overwrites", version: 5, wantContent: "incoming"},
		{name: "newer version overwrites", version: 7, wantContent: "incoming"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := require.New(t)
			store := newTestStore(t, assert)
			ctx := context.Background()

			assert.NoError(store.PutContent(ctx, models.DocumentContent{ID: "a", Version: 5, MimeType: "text/plain", Content: "v5"}))
			assert.NoError(store.PutContent(ctx, models.DocumentContent{ID: "a", Version: tc.version, MimeType: "text/plain", Content: "incoming"}))

			contents, err := store.GetContentMany(ctx, []string{"a"})
			assert.NoError(err)
			assert.Len(contents, 1)
			assert.Equal(tc.wantContent, contents[0].Content)
		})
	}
}

func TestContributions(t *testing.T) {
	assert := require.New(t)
	store := newTestStore(t, assert)
	ctx := context.Background()

	alice := &models.Person{ID: "alice", DisplayName: "Alice"}
	bob := &models.Person{ID: "bob", DisplayName: "Bob"}

	assert.NoError(store.PutContributions(ctx, []models.Contribution{
		{DocID: "a", Author: alice, Version: 1, ModificationTimestamp: 100},
		{DocID: "a", Author: bob, Version: 2, ModificationTimestamp: 200},
		{DocID: "ab", Author: alice, Version: 1, ModificationTimestamp: 50},
		{DocID: "b", Author: nil, Version: 1, ModificationTimestamp: 300},
	}))

	contribs, err := store.FindContributionsForDocs(ctx, []string{"a"})
	assert.NoError(err)
	assert.Len(contribs, 2, "prefix scan must not pick up doc ab")

	contribs, err = store.FindContributionsForDocs(ctx, []string{"a", "b", "a"})
	assert.NoError(err)
	assert.Len(contribs, 3)

	contribs, err = store.FindContributionsByAuthor(ctx, "alice")
	assert.NoError(err)
	assert.Len(contribs, 2)
	assert.Equal("ab", contribs[0].DocID)
	assert.Equal("a", contribs[1].DocID)

	// rewriting a revision moves it to the new author
	assert.NoError(store.PutContributions(ctx, []models.Contribution{
		{DocID: "a", Author: alice, Version: 2, ModificationTimestamp: 200},
	}))
	contribs, err = store.FindContributionsByAuthor(ctx, "bob")
	assert.NoError(err)
	assert.Empty(contribs)
	contribs, err = store.FindContributionsByAuthor(ctx, "alice")
	assert.NoError(err)
	assert.Len(contribs, 3)
}

func TestClearKeepsRequestStatuses(t *testing.T) {
	assert := require.New(t)
	store := newTestStore(t, assert)
	ctx := context.Background()

	assert.NoError(store.PutMany(ctx, []models.Document{{ID: "a", ModificationTimestamp: 1}}))
	assert.NoError(store.PutContent(ctx, models.DocumentContent{ID: "a", Content: "x"}))
	assert.NoError(store.PutContributions(ctx, []models.Contribution{{DocID: "a", Author: &models.Person{ID: "p"}, Version: 1}}))
	assert.NoError(store.SetRequestStatus(ctx, "req1", 100))

	assert.NoError(store.Clear(ctx))

	docs, err := store.GetMany(ctx, []string{"a"})
	assert.NoError(err)
	assert.Empty(docs)
	docs, err = store.ListByIndex(ctx, IndexModified, Asc, 0)
	assert.NoError(err)
	assert.Empty(docs)
	contents, err := store.GetContentMany(ctx, []string{"a"})
	assert.NoError(err)
	assert.Empty(contents)
	contribs, err := store.FindContributionsByAuthor(ctx, "p")
	assert.NoError(err)
	assert.Empty(contribs)

	status, err := store.GetRequestStatus(ctx, "req1")
	assert.NoError(err)
	assert.Equal(100, status)
}

func TestRequestStatus(t *testing.T) {
	assert := require.New(t)
	store := newTestStore(t, assert)
	ctx := context.Background()

	_, err := store.GetRequestStatus(ctx, "unknown")
	assert.ErrorIs(err, ErrNotFound)

	assert.NoError(store.SetRequestStatus(ctx, "req1", 10))
	assert.NoError(store.SetRequestStatus(ctx, "req1", -1))

	status, err := store.GetRequestStatus(ctx, "req1")
	assert.NoError(err)
	assert.Equal(-1, status)
}

func TestCancelledContext(t *testing.T) {
	assert := require.New(t)
	store := newTestStore(t, assert)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.GetMany(ctx, []string{"a"})
	assert.ErrorIs(err, context.Canceled)
}
