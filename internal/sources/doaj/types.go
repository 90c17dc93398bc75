package doaj

// SearchResponse represents the DOAJ article search API response.
type SearchResponse struct {
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"pageSize"`
	Results  []Result `json:"results"`
}

// Result represents a single article record.
type Result struct {
	ID          string  `json:"id"`
	CreatedDate string  `json:"created_date"` // "2024-01-15T09:30:00Z"
	BibJSON     BibJSON `json:"bibjson"`
}

// BibJSON holds the bibliographic payload of an article.
type BibJSON struct {
	Title       string       `json:"title"`
	Abstract    string       `json:"abstract"`
	Year        string       `json:"year"`
	Month       string       `json:"month"`
	Authors     []Author     `json:"author"`
	Keywords    []string     `json:"keywords"`
	Subjects    []Subject    `json:"subject"`
	Identifiers []Identifier `json:"identifier"`
	Links       []Link       `json:"link"`
}

// Author is one article author.
type Author struct {
	Name string `json:"name"`
}

// Subject is one classification term.
type Subject struct {
	Term string `json:"term"`
}

// Identifier is one external identifier ("doi", "pissn", "eissn").
type Identifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Link is one article link ("fulltext").
type Link struct {
	Type        string `json:"type"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
}
