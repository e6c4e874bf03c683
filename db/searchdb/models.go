package searchdb

import (
	"strings"

	"github.com/meghashyamc/docdisco/models"
)

const mimeTypeHTML = "text/html"

// Document is the shape stored in the index.
type Document struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
}

func marshal(doc models.Document, content *models.DocumentContent) Document {
	indexDoc := Document{
		ID:    doc.ID,
		Title: doc.Title,
	}

	if content != nil {
		if strings.HasPrefix(content.MimeType, mimeTypeHTML) {
			indexDoc.Content = htmlToText(content.Content)
		} else {
			indexDoc.Content = content.Content
		}
	}

	return indexDoc
}
