package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/meghashyamc/docdisco/models"
	"github.com/stretchr/testify/require"
)

func TestHandleGetDocument(t *testing.T) {
	assert := require.New(t)
	server := setupTestServer(t, assert, nil)
	server.seed(assert, []models.Document{{ID: "doc-1", Title: "Launch checklist", Version: 3}}, nil)

	w := makeTestHTTPRequest(server.router, assert, http.MethodGet, "/documents/doc-1", nil, nil, nil)
	assert.Equal(http.StatusOK, w.Code)

	var got struct {
		Data models.Document `json:"data"`
	}
	assert.NoError(json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal("Launch checklist", got.Data.Title)
	assert.Equal(int64(3), got.Data.Version)

	w = makeTestHTTPRequest(server.router, assert, http.MethodGet, "/documents/doc-2", nil, nil, nil)
	assert.Equal(http.StatusNotFound, w.Code)
}

func TestHandleClearDocuments(t *testing.T) {
	assert := require.New(t)
	server := setupTestServer(t, assert, nil)
	server.seed(assert, []models.Document{{ID: "doc-1", Title: "Launch checklist", Version: 1}}, nil)

	w := makeTestHTTPRequest(server.router, assert, http.MethodDelete, "/documents", nil, nil, nil)
	assert.Equal(http.StatusNoContent, w.Code)

	w = makeTestHTTPRequest(server.router, assert, http.MethodGet, "/documents/doc-1", nil, nil, nil)
	assert.Equal(http.StatusNotFound, w.Code)

	hits, err := server.index.Search(t.Context(), "checklist")
	assert.NoError(err)
	assert.Empty(hits)
}
