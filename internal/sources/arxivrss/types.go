package arxivrss

import "encoding/xml"

// RSS represents the arXiv RSS 2.0 feed document.
type RSS struct {
	XMLName xml.Name `xml:"rss"`
	Channel Channel  `xml:"channel"`
}

// Channel holds the feed metadata and items.
type Channel struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	Items       []Item `xml:"item"`
}

// Item represents one announced paper in the feed.
type Item struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"` // "https://arxiv.org/abs/2408.12345"
	Description string   `xml:"description"`
	Creator     string   `xml:"creator"` // dc:creator, comma-separated authors
	Categories  []string `xml:"category"`
	PubDate     string   `xml:"pubDate"` // RFC1123 style
	GUID        string   `xml:"guid"`    // "oai:arXiv.org:2408.12345v1"
}
