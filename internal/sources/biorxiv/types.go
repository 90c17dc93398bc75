package biorxiv

// DetailsResponse represents the top-level bioRxiv details API response.
type DetailsResponse struct {
	Messages   []Message `json:"messages"`
	Collection []Record  `json:"collection"`
}

// Message carries the pagination status for a details request.
type Message struct {
	Status string `json:"status"` // "ok" or "no posts found"
	Total  int    `json:"total"`
	Count  int    `json:"count"`
	Cursor any    `json:"cursor"` // the API returns either a string or a number
}

// Record represents a single preprint in the details response.
type Record struct {
	DOI        string `json:"doi"`
	Title      string `json:"title"`
	Authors    string `json:"authors"` // "Last, F.; Last, F."
	Date       string `json:"date"`    // "2024-01-15"
	Version    string `json:"version"`
	Category   string `json:"category"`
	Abstract   string `json:"abstract"`
	Published  string `json:"published"` // journal DOI once published, "NA" otherwise
	Server     string `json:"server"`    // "biorxiv" or "medrxiv"
	JatsXML    string `json:"jatsxml"`
	License    string `json:"license"`
	RecordType string `json:"type"`
}
