package plos

// SearchResponse represents the PLOS Solr search API response.
type SearchResponse struct {
	Response Response `json:"response"`
}

// Response wraps the Solr result set.
type Response struct {
	NumFound int   `json:"numFound"`
	Start    int   `json:"start"`
	Docs     []Doc `json:"docs"`
}

// Doc represents a single article document. The id field is the DOI.
type Doc struct {
	ID              string   `json:"id"`
	TitleDisplay    string   `json:"title_display"`
	Abstract        []string `json:"abstract"`
	AuthorDisplay   []string `json:"author_display"`
	Subject         []string `json:"subject"`
	Journal         string   `json:"journal"`
	PublicationDate string   `json:"publication_date"` // "2024-01-15T00:00:00Z"
	ArticleType     string   `json:"article_type"`
}
