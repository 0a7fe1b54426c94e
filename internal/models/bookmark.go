// Package models holds the decrypted record shapes arriving from the storage
// service and the entities persisted from them.
package models

import (
	"time"

	"github.com/avollmer/weavebox/internal/urlx"
)

// BookmarkRecord is the structured payload of a decrypted bookmark-collection
// record. Field names follow the wire format.
type BookmarkRecord struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	URI       string `json:"bmkUri"`
	ParentID  string `json:"parentid"`
	DateAdded int64  `json:"dateAdded"` // milliseconds
	Deleted   bool   `json:"deleted"`
}

// Bookmark is the stored bookmark entity. ParentID keeps the raw parent
// reference from the record, including root sentinels; the inserter session
// decides what gets materialized.
type Bookmark struct {
	ID        string
	Type      string
	Title     string
	URL       string
	CleanURL  string
	DateAdded *time.Time
	Modified  *time.Time
	Deleted   bool
	ParentID  string
}

// Entity converts the record into a storable bookmark, injecting the
// envelope's modified timestamp and deriving the clean URL.
func (r BookmarkRecord) Entity(modified time.Time) *Bookmark {
	b := &Bookmark{
		ID:       r.ID,
		Type:     r.Type,
		Title:    r.Title,
		URL:      r.URI,
		CleanURL: urlx.Clean(r.URI),
		Deleted:  r.Deleted,
		ParentID: r.ParentID,
		Modified: &modified,
	}
	if r.DateAdded != 0 {
		t := time.UnixMilli(r.DateAdded).UTC()
		b.DateAdded = &t
	}
	return b
}
