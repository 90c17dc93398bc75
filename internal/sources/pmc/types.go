package pmc

// ESearchResult represents the E-utilities esearch XML response.
type ESearchResult struct {
	Count    int      `xml:"Count"`
	RetMax   int      `xml:"RetMax"`
	RetStart int      `xml:"RetStart"`
	IDList   []string `xml:"IdList>Id"`
}

// ArticleSet represents the E-utilities efetch response for db=pmc,
// a JATS pmc-articleset document.
type ArticleSet struct {
	Articles []Article `xml:"article"`
}

// Article is one JATS article element.
type Article struct {
	Front Front `xml:"front"`
}

// Front holds the JATS front matter.
type Front struct {
	JournalMeta JournalMeta `xml:"journal-meta"`
	ArticleMeta ArticleMeta `xml:"article-meta"`
}

// JournalMeta holds journal-level metadata.
type JournalMeta struct {
	JournalTitle string `xml:"journal-title-group>journal-title"`
}

// ArticleMeta holds article-level metadata.
type ArticleMeta struct {
	ArticleIDs []ArticleID `xml:"article-id"`
	Title      string      `xml:"title-group>article-title"`
	Subjects   []string    `xml:"article-categories>subj-group>subject"`
	Contribs   []Contrib   `xml:"contrib-group>contrib"`
	PubDates   []PubDate   `xml:"pub-date"`
	Abstract   Abstract    `xml:"abstract"`
}

// ArticleID is one identifier with its type ("pmc", "doi", "pmid").
type ArticleID struct {
	Type  string `xml:"pub-id-type,attr"`
	Value string `xml:",chardata"`
}

// Contrib is one contributor entry.
type Contrib struct {
	Type    string `xml:"contrib-type,attr"`
	Surname string `xml:"name>surname"`
	Given   string `xml:"name>given-names"`
}

// PubDate is one publication date with its type ("epub", "ppub", ...).
type PubDate struct {
	Type  string `xml:"pub-type,attr"`
	Year  int    `xml:"year"`
	Month int    `xml:"month"`
	Day   int    `xml:"day"`
}

// Abstract captures the abstract paragraphs. JATS abstracts may be a flat
// set of <p> elements or labeled <sec> sections.
type Abstract struct {
	Paragraphs []string `xml:"p"`
	Sections   []struct {
		Title      string   `xml:"title"`
		Paragraphs []string `xml:"p"`
	} `xml:"sec"`
}
