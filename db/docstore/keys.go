package docstore

import (
	"bytes"
	"encoding/binary"

	"github.com/meghashyamc/docdisco/models"
)

const keySeparator = 0x00

type indexSpec struct {
	bucket    string
	timestamp func(models.Document) int64
}

var indexSpecs = map[Index]indexSpec{
	IndexCreated:      {bucket: "idx_created", timestamp: func(d models.Document) int64 { return d.CreationTimestamp }},
	IndexModified:     {bucket: "idx_modified", timestamp: func(d models.Document) int64 { return d.ModificationTimestamp }},
	IndexModifiedByMe: {bucket: "idx_edited", timestamp: func(d models.Document) int64 { return d.EditedTimestamp }},
	IndexViewed:       {bucket: "idx_viewed", timestamp: func(d models.Document) int64 { return d.ViewedTimestamp }},
}

func uint64Bytes(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

// indexKey orders by timestamp first, then id.
func indexKey(timestamp int64, id string) []byte {
	return append(uint64Bytes(timestamp), id...)
}

func contributionPrefix(docID string) []byte {
	return append([]byte(docID), keySeparator)
}

// contributionKey is unique per document revision.
func contributionKey(docID string, version int64) []byte {
	return append(contributionPrefix(docID), uint64Bytes(version)...)
}

func authorPrefix(authorID string) []byte {
	return append([]byte(authorID), keySeparator)
}

func authorKey(c models.Contribution) []byte {
	key := append(authorPrefix(c.Author.ID), uint64Bytes(c.ModificationTimestamp)...)
	return append(key, contributionKey(c.DocID, c.Version)...)
}

func hasPrefix(key []byte, prefix []byte) bool {
	return key != nil && bytes.HasPrefix(key, prefix)
}
