// Common test helpers
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/docdisco/config"
	"github.com/meghashyamc/docdisco/db/docstore"
	"github.com/meghashyamc/docdisco/db/searchdb"
	"github.com/meghashyamc/docdisco/logger"
	"github.com/meghashyamc/docdisco/models"
	"github.com/meghashyamc/docdisco/remote"
	"github.com/meghashyamc/docdisco/services/index"
	"github.com/meghashyamc/docdisco/services/search"
	"github.com/meghashyamc/docdisco/validation"
	"github.com/stretchr/testify/require"
)

var defaultTestRequestHeaders = map[string]string{"Content-Type": "application/json"}

type testCase struct {
	name           string
	requestHeaders map[string]string
	requestBody    map[string]any
	queryParams    map[string]string
	expectedStatus int
	expectedErrors []string
}

type testServer struct {
	router   *gin.Engine
	store    *docstore.BoltDB
	index    *searchdb.BleveDB
	pipeline *index.Pipeline
}

func newTestLogger() logger.Logger {

	opts := &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}

// setupTestServer wires every handler against a temporary store and an
// in-memory index. delegate may be nil.
func setupTestServer(t *testing.T, assert *require.Assertions, delegate remote.Delegate) *testServer {

	cfg, err := config.Load("test")
	assert.NoError(err, "could not load config")

	testLogger := newTestLogger()

	store, err := docstore.Open(testLogger, filepath.Join(t.TempDir(), "documents.db"))
	assert.NoError(err, "could not create document store")

	searchDB, err := searchdb.NewMemOnly(testLogger)
	assert.NoError(err, "could not create search database")

	validator, err := validation.New(testLogger)
	assert.NoError(err, "could not create validator")

	ctx, cancel := context.WithCancel(context.Background())
	pipeline := index.NewPipeline(testLogger, searchDB, store, cfg.GetTitleCount(), cfg.GetFulltextCount())
	refresher := index.New(ctx, testLogger, pipeline, nil, store, cfg.GetRefreshInterval())
	engine := search.New(testLogger, searchDB, store, delegate, search.WithDebounce(cfg.GetDelegateDebounce()))

	gin.SetMode(gin.TestMode)
	router := gin.New()

	SetupSearch(router, testLogger, engine, validator)
	SetupDiscovery(router, testLogger, engine)
	SetupRefresh(router, testLogger, refresher, validator)
	SetupDocuments(router, testLogger, store, refresher)

	t.Cleanup(func() {
		cancel()
		assert.NoError(searchDB.Close(), "could not close search database")
		assert.NoError(store.Close(), "could not close document store")
	})

	return &testServer{router: router, store: store, index: searchDB, pipeline: pipeline}
}

// seed stores the documents with their contents and rebuilds the index.
func (s *testServer) seed(assert *require.Assertions, docs []models.Document, contents map[string]string) {
	ctx := context.Background()
	assert.NoError(s.store.PutMany(ctx, docs))
	for id, content := range contents {
		assert.NoError(s.store.PutContent(ctx, models.DocumentContent{ID: id, Version: 1, MimeType: "text/plain", Content: content}))
	}
	assert.NoError(s.pipeline.Reload(ctx))
}

func makeTestHTTPRequest(router *gin.Engine, assert *require.Assertions, method string, endpoint string, headers map[string]string, requestBodyMap map[string]interface{}, queryParams map[string]string) *httptest.ResponseRecorder {

	var err error
	w := httptest.NewRecorder()

	if len(queryParams) > 0 {
		endpoint = endpoint + "?"
		for key, value := range queryParams {
			if endpoint[len(endpoint)-1] != '?' {
				endpoint = endpoint + "&"
			}
			endpoint = endpoint + key + "=" + value
		}
	}
	var jsonBody []byte
	var req *http.Request
	if requestBodyMap != nil {
		jsonBody, err = json.Marshal(requestBodyMap)
		assert.NoError(err)
	}

	slog.Info("Making test request", "method", method, "endpoint", endpoint, "headers", headers, "body", string(jsonBody))

	if len(jsonBody) > 0 {
		req, err = http.NewRequest(method, endpoint, bytes.NewBuffer(jsonBody))
	} else {
		req, err = http.NewRequest(method, endpoint, nil)
	}
	assert.NoError(err)

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	router.ServeHTTP(w, req)

	return w
}

func runTestCases(t *testing.T, router *gin.Engine, method string, endpoint string, testCases []testCase) {
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			w := makeTestHTTPRequest(router, assert, method, endpoint, testCase.requestHeaders, testCase.requestBody, testCase.queryParams)
			assert.Equal(testCase.expectedStatus, w.Code, "response gotten was %s", w.Body.String())

			if testCase.expectedErrors != nil {
				var got response
				assert.NoError(json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(testCase.expectedErrors, got.Errors)
			}
		})
	}
}

type streamedEvent struct {
	name string
	data json.RawMessage
}

// parseEvents splits a server-sent event stream into its events.
func parseEvents(body string) []streamedEvent {
	var events []streamedEvent
	for _, block := range strings.Split(strings.TrimSpace(body), "\n\n") {
		var event streamedEvent
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "event:"):
				event.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				event.data = json.RawMessage(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
			}
		}
		if event.name != "" {
			events = append(events, event)
		}
	}
	return events
}

func timestamp(daysAgo int) int64 {
	return time.Now().Add(-time.Duration(daysAgo) * 24 * time.Hour).UnixMilli()
}
