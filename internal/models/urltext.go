package models

// URLText is extracted page content keyed by clean URL, linked to the
// bookmark and history entities that reference that URL.
type URLText struct {
	URL           string
	RawText       string
	ProcessedText string
	Title         string
	Headers       string
	HTTPStatus    int
}

// SearchResult is one row of a ranked full-text search. BookmarkID and
// HistoryID are representative linkage ids and may be empty when the content
// is only linked to the other entity kind.
type SearchResult struct {
	Title             string
	URL               string
	Rank              float64
	ProcessedTextRank float64
	TitleRank         float64
	HeadersRank       float64
	BookmarkID        string
	HistoryID         string
}
