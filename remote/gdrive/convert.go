package gdrive

import (
	"time"

	"github.com/meghashyamc/docdisco/models"
	"google.golang.org/api/drive/v3"
)

func asDocument(file *drive.File) models.Document {
	doc := models.Document{
		ID:                    file.Id,
		Title:                 file.Name,
		MimeType:              file.MimeType,
		CreationTimestamp:     timestamp(file.CreatedTime),
		ModificationTimestamp: timestamp(file.ModifiedTime),
		ViewedTimestamp:       timestamp(file.ViewedByMeTime),
		EditedTimestamp:       timestamp(file.ModifiedByMeTime),
		SharedTimestamp:       timestamp(file.SharedWithMeTime),
		Version:               file.Version,
		Sharer:                asPerson(file.SharingUser),
		LastModifier:          asPerson(file.LastModifyingUser),
		Link:                  file.WebViewLink,
		IconURL:               file.IconLink,
		ThumbnailURL:          file.ThumbnailLink,
	}

	// files in shared drives have no owner
	if len(file.Owners) > 0 {
		doc.Creator = asPerson(file.Owners[0])
	}
	if len(file.Parents) > 0 {
		doc.ParentID = file.Parents[0]
	}
	if doc.Link == "" {
		doc.Link = file.WebContentLink
	}

	return doc
}

func asPerson(user *drive.User) *models.Person {
	if user == nil {
		return nil
	}

	displayName := user.DisplayName
	if displayName == "" {
		displayName = "Anonymous"
	}
	return &models.Person{
		ID:           user.PermissionId,
		DisplayName:  displayName,
		ThumbnailURL: user.PhotoLink,
		EmailAddress: user.EmailAddress,
	}
}

// timestamp converts an RFC 3339 time to Unix milliseconds, or 0 if absent.
func timestamp(value string) int64 {
	if value == "" {
		return 0
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return 0
	}
	return parsed.UnixMilli()
}
