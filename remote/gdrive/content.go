package gdrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/meghashyamc/docdisco/models"
	"github.com/meghashyamc/docdisco/remote"
	"google.golang.org/api/drive/v3"
)

const (
	MimeTypeGoogleDoc    = "application/vnd.google-apps.document"
	MimeTypeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	MimeTypeGoogleSlides = "application/vnd.google-apps.presentation"
	MimeTypeFolder       = "application/vnd.google-apps.folder"
)

const (
	ExportMimeText = "text/plain"
	ExportMimeCSV  = "text/csv"
)

// MaxContentSize caps exported and downloaded content at 5MB.
const MaxContentSize = 5 * 1024 * 1024

var exportTypes = map[string]string{
	MimeTypeGoogleDoc:    ExportMimeText,
	MimeTypeGoogleSheet:  ExportMimeCSV,
	MimeTypeGoogleSlides: ExportMimeText,
}

var textTypes = map[string]bool{
	"application/json":       true,
	"application/xml":        true,
	"application/javascript": true,
	"application/x-yaml":     true,
}

// FetchContent exports or downloads the text of each document along with its
// revision history. Documents with no text representation, and documents
// whose fetch fails, are left out.
func (c *Client) FetchContent(ctx context.Context, docs []models.Document) ([]remote.ContentResult, error) {
	fetchTimestamp := time.Now().UnixMilli()
	var results []remote.ContentResult

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		content, mimeType, err := c.fetchText(ctx, doc)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			c.logger.Error("failed to fetch content", "id", doc.ID, "err", err.Error())
			continue
		}
		if mimeType == "" {
			continue
		}

		contributions, err := c.fetchContributions(ctx, doc.ID)
		if err != nil {
			c.logger.Debug("failed to fetch revisions", "id", doc.ID, "err", err.Error())
		}

		results = append(results, remote.ContentResult{
			Content: models.DocumentContent{
				ID:                    doc.ID,
				Version:               doc.Version,
				ModificationTimestamp: doc.ModificationTimestamp,
				FetchTimestamp:        fetchTimestamp,
				MimeType:              mimeType,
				Content:               content,
			},
			Contributions: contributions,
		})
	}

	return results, nil
}

// fetchText returns the document text and its mime type. An empty mime type
// means the document has no text representation.
func (c *Client) fetchText(ctx context.Context, doc models.Document) (string, string, error) {
	if exportMime, ok := exportTypes[doc.MimeType]; ok {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", "", err
		}
		resp, err := c.service.Files.Export(doc.ID, exportMime).Context(ctx).Download()
		if err != nil {
			return "", "", asFailure(filesEndpoint+"/"+doc.ID+"/export", err)
		}
		defer resp.Body.Close()

		content, err := readLimited(resp.Body)
		return content, exportMime, err
	}

	if !isTextFile(doc.MimeType) {
		return "", "", nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", "", err
	}
	resp, err := c.service.Files.Get(doc.ID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return "", "", asFailure(filesEndpoint+"/"+doc.ID, err)
	}
	defer resp.Body.Close()

	content, err := readLimited(resp.Body)
	return content, doc.MimeType, err
}

func readLimited(body io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxContentSize))
	if err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}
	return string(data), nil
}

func isTextFile(mimeType string) bool {
	return strings.HasPrefix(mimeType, "text/") || textTypes[mimeType]
}

// fetchContributions turns the revision history of a document into one
// contribution per revision.
func (c *Client) fetchContributions(ctx context.Context, docID string) ([]models.Contribution, error) {
	var contributions []models.Contribution
	pageToken := ""

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return contributions, err
		}

		call := c.service.Revisions.List(docID).Fields(revisionFields).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		revisions, err := call.Do()
		if err != nil {
			return contributions, asFailure(filesEndpoint+"/"+docID+"/revisions", err)
		}

		for _, revision := range revisions.Revisions {
			contributions = append(contributions, models.Contribution{
				DocID:                 docID,
				Author:                asPerson(revision.LastModifyingUser),
				Version:               revisionVersion(revision, len(contributions)+1),
				ModificationTimestamp: timestamp(revision.ModifiedTime),
			})
		}

		pageToken = revisions.NextPageToken
		if pageToken == "" {
			return contributions, nil
		}
	}
}

// revisionVersion uses the numeric revision id when there is one, and the
// revision's position otherwise.
func revisionVersion(revision *drive.Revision, position int) int64 {
	if version, err := strconv.ParseInt(revision.Id, 10, 64); err == nil {
		return version
	}
	return int64(position)
}
