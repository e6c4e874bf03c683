// Package gdrive integrates Google Drive as a searchable, indexable remote.
package gdrive

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/meghashyamc/docdisco/config"
	"github.com/meghashyamc/docdisco/logger"
	"github.com/meghashyamc/docdisco/models"
	"github.com/meghashyamc/docdisco/remote"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const Name = "gdrive"

const (
	defaultSearchLimit = 30
	filesEndpoint      = "drive/v3/files"

	listFields     = "nextPageToken, files(id, name, mimeType, version, createdTime, modifiedTime, viewedByMeTime, modifiedByMeTime, sharedWithMeTime, owners, sharingUser, lastModifyingUser, parents, webViewLink, webContentLink, iconLink, thumbnailLink, size)"
	revisionFields = "nextPageToken, revisions(id, modifiedTime, lastModifyingUser)"

	notFolder = "mimeType != 'application/vnd.google-apps.folder' and trashed = false"
)

type listing struct {
	corpora string
	orderBy string
}

// Listings that surface documents for discovery: recent activity across all
// drives, recent activity on my documents, and my recently viewed documents.
var discoveryListings = []listing{
	{corpora: "allDrives", orderBy: "modifiedTime desc"},
	{corpora: "user", orderBy: "modifiedTime desc"},
	{corpora: "user", orderBy: "viewedByMeTime desc"},
}

type Client struct {
	service *drive.Service
	limiter *rate.Limiter
	logger  logger.Logger
}

var _ remote.Integration = (*Client)(nil)

// New builds a Drive client authenticated with the configured access token.
// Extra options are applied last and may override the configured ones.
func New(ctx context.Context, logger logger.Logger, cfg *config.Config, opts ...option.ClientOption) (*Client, error) {
	var clientOpts []option.ClientOption
	if token := cfg.GetDriveAccessToken(); token != "" {
		tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
		clientOpts = append(clientOpts, option.WithTokenSource(tokenSource))
	}
	if endpoint := cfg.GetDriveEndpoint(); endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(endpoint))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		logger.Error("could not create drive service", "err", err.Error())
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &Client{
		service: service,
		limiter: rate.NewLimiter(rate.Limit(cfg.GetDriveRequestsPerSecond()), cfg.GetDriveBurst()),
		logger:  logger,
	}, nil
}

func (c *Client) Name() string {
	return Name
}

// Search runs a full-text query against every drive the user can see.
func (c *Client) Search(ctx context.Context, q string, limit int) (*models.SearchResultSet, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	call := c.service.Files.List().
		Corpora("allDrives").
		Q(fmt.Sprintf("trashed = false and fullText contains '%s'", escapeQuery(strings.TrimSpace(q)))).
		PageSize(int64(limit))

	page, err := c.list(ctx, call)
	if err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, len(page.Items))
	for i, doc := range page.Items {
		results[i] = models.NewSearchResult(doc)
	}
	set := models.NewSearchResultSet(results, len(results))
	return &set, nil
}

// ListAllFiles pages through every non-folder document, most recently
// modified first.
func (c *Client) ListAllFiles(ctx context.Context, count int, continuation string) (*remote.ListingResult, error) {
	call := c.service.Files.List().
		Corpora("allDrives").
		Q(notFolder).
		OrderBy("modifiedTime desc").
		PageSize(int64(count))
	if continuation != "" {
		call = call.PageToken(continuation)
	}
	return c.list(ctx, call)
}

// ListInterestingFiles merges the discovery listings, keeping the first
// occurrence of each document.
func (c *Client) ListInterestingFiles(ctx context.Context, count int) ([]models.Document, error) {
	pages := make([]*remote.ListingResult, len(discoveryListings))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, l := range discoveryListings {
		group.Go(func() error {
			call := c.service.Files.List().
				Corpora(l.corpora).
				OrderBy(l.orderBy).
				Q(notFolder).
				PageSize(int64(count))
			page, err := c.list(groupCtx, call)
			if err != nil {
				return err
			}
			pages[i] = page
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var docs []models.Document
	for _, page := range pages {
		for _, doc := range page.Items {
			if seen[doc.ID] {
				continue
			}
			seen[doc.ID] = true
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (c *Client) list(ctx context.Context, call *drive.FilesListCall) (*remote.ListingResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	fileList, err := call.
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Spaces("drive").
		Fields(listFields).
		Context(ctx).
		Do()
	if err != nil {
		c.logger.Error("drive listing failed", "err", err.Error())
		return nil, asFailure(filesEndpoint, err)
	}

	items := make([]models.Document, 0, len(fileList.Files))
	for _, file := range fileList.Files {
		items = append(items, asDocument(file))
	}
	return &remote.ListingResult{Items: items, Continuation: fileList.NextPageToken}, nil
}

// escapeQuery escapes a value for use inside a single-quoted Drive query string.
func escapeQuery(value string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(value)
}

// asFailure maps Drive errors onto the remote error taxonomy.
func asFailure(url string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &remote.HTTPFailure{URL: url, Status: apiErr.Code, Body: apiErr.Message, Err: err}
	}

	if remote.IsTransport(err) {
		return &remote.HTTPFailure{URL: url, Status: 0, Body: err.Error(), Err: err}
	}
	return err
}
