// Package models holds the value types shared by the store, the local index,
// the remote integrations and the search engine.
//
// Timestamps are Unix milliseconds. A zero timestamp means the value is not
// known for that document.
package models

type Person struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	EmailAddress string `json:"email_address,omitempty"`
	ProfileURL   string `json:"profile_url,omitempty"`
}

type Location struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Link        string `json:"link,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
}

type Document struct {
	ID                    string     `json:"id"`
	Title                 string     `json:"title"`
	MimeType              string     `json:"mime_type"`
	CreationTimestamp     int64      `json:"creation_timestamp,omitempty"`
	ModificationTimestamp int64      `json:"modification_timestamp,omitempty"` // modified by anyone
	EditedTimestamp       int64      `json:"edited_timestamp,omitempty"`       // modified by me
	ViewedTimestamp       int64      `json:"viewed_timestamp,omitempty"`       // viewed by me
	SharedTimestamp       int64      `json:"shared_timestamp,omitempty"`       // shared with me
	Version               int64      `json:"version"`
	Creator               *Person    `json:"creator,omitempty"`
	Sharer                *Person    `json:"sharer,omitempty"`
	LastModifier          *Person    `json:"last_modifier,omitempty"`
	ParentID              string     `json:"parent_id,omitempty"`
	Link                  string     `json:"link,omitempty"`
	IconURL               string     `json:"icon_url,omitempty"`
	ThumbnailURL          string     `json:"thumbnail_url,omitempty"`
	LocationPath          []Location `json:"location_path,omitempty"`
}

// DocumentContent is the fetched body of a document. Version is the highest
// document version the content is known to reflect.
type DocumentContent struct {
	ID                    string `json:"id"`
	Version               int64  `json:"version,omitempty"`
	ModificationTimestamp int64  `json:"modification_timestamp,omitempty"`
	FetchTimestamp        int64  `json:"fetch_timestamp"`
	MimeType              string `json:"mime_type"`
	Content               string `json:"content"`
}

// Contribution records one author's revision of one document.
type Contribution struct {
	DocID                 string  `json:"doc_id"`
	Author                *Person `json:"author,omitempty"`
	Version               int64   `json:"version"`
	ModificationTimestamp int64   `json:"modification_timestamp"`
}

// QueryHit is a raw match from the local index.
type QueryHit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}
