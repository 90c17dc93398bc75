// Package semanticscholar provides a client for the Semantic Scholar Graph API.
//
// The client plays two roles: it implements the sources.Source interface like
// every other platform client, and it exposes the lookup endpoints the
// citation resolver needs (identifier lookup, bulk title search, and the
// reference/citation lists of a matched paper).
//
// API documentation: https://api.semanticscholar.org/api-docs/
package semanticscholar

// SearchResponse represents the relevance search endpoint response.
type SearchResponse struct {
	// Total is the total number of papers matching the query.
	Total int `json:"total"`

	// Offset is the current offset in the result set.
	Offset int `json:"offset"`

	// Next is the offset for the next page of results.
	// A value of 0 indicates no more results.
	Next int `json:"next"`

	// Data contains the list of papers returned by the search.
	Data []PaperResult `json:"data"`
}

// BulkSearchResponse represents the bulk search endpoint response.
type BulkSearchResponse struct {
	Total int           `json:"total"`
	Token string        `json:"token"`
	Data  []PaperResult `json:"data"`
}

// PaperResult represents a single paper in the API response.
type PaperResult struct {
	PaperID         string       `json:"paperId"`
	ExternalIDs     *ExternalIDs `json:"externalIds,omitempty"`
	Title           string       `json:"title"`
	Abstract        string       `json:"abstract"`
	Year            int          `json:"year"`
	PublicationDate string       `json:"publicationDate"` // "2017-06-12"
	Venue           string       `json:"venue"`
	Authors         []Author     `json:"authors"`
	FieldsOfStudy   []string     `json:"fieldsOfStudy"`
	CitationCount   int          `json:"citationCount"`
	ReferenceCount  int          `json:"referenceCount"`
	OpenAccessPDF   *OpenAccess  `json:"openAccessPdf,omitempty"`

	// References and Citations are populated only when explicitly requested
	// through the fields parameter.
	References []PaperRef `json:"references,omitempty"`
	Citations  []PaperRef `json:"citations,omitempty"`
}

// ExternalIDs maps a paper to identifiers on other platforms.
type ExternalIDs struct {
	DOI           string `json:"DOI"`
	ArXiv         string `json:"ArXiv"`
	PubMed        string `json:"PubMed"`
	PubMedCentral string `json:"PubMedCentral"`
}

// Author is one paper author.
type Author struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

// OpenAccess holds the open access PDF location.
type OpenAccess struct {
	URL string `json:"url"`
}

// PaperRef is a minimal paper reference carrying only the Semantic Scholar ID.
type PaperRef struct {
	PaperID string `json:"paperId"`
}

// ErrorResponse represents an API error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
