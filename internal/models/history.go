package models

import (
	"time"

	"github.com/avollmer/weavebox/internal/urlx"
)

// Visit is one page visit inside a history record. Date is in microseconds.
type Visit struct {
	Date int64 `json:"date"`
	Type int   `json:"type"`
}

// HistoryRecord is the structured payload of a decrypted history-collection
// record.
type HistoryRecord struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	URI     string  `json:"histUri"`
	Visits  []Visit `json:"visits"`
	Deleted bool    `json:"deleted"`
}

// History is the stored history entity. LastVisited and VisitCount are nil
// when the source record carried no visits list, and must then be left
// unchanged on upsert.
type History struct {
	ID          string
	Title       string
	URL         string
	CleanURL    string
	LastVisited *time.Time
	VisitCount  *int
	Modified    *time.Time
	Deleted     bool
}

// Entity converts the record into a storable history entry. When visits are
// present, LastVisited is the minimum visit date and VisitCount the list
// length.
func (r HistoryRecord) Entity(modified time.Time) *History {
	h := &History{
		ID:       r.ID,
		Title:    r.Title,
		URL:      r.URI,
		CleanURL: urlx.Clean(r.URI),
		Deleted:  r.Deleted,
		Modified: &modified,
	}
	if len(r.Visits) > 0 {
		min := r.Visits[0].Date
		for _, v := range r.Visits[1:] {
			if v.Date < min {
				min = v.Date
			}
		}
		t := time.UnixMicro(min).UTC()
		n := len(r.Visits)
		h.LastVisited = &t
		h.VisitCount = &n
	}
	return h
}
