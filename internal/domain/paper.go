// Package domain provides domain models and business logic for the citation graph service.
package domain

import (
	"strings"
	"time"
)

// SourceType identifies the platform a paper record originated from.
// These values must match the database enum source_type.
type SourceType string

const (
	SourceTypeArXiv           SourceType = "arxiv"
	SourceTypeArXivRSS        SourceType = "arxiv_rss"
	SourceTypeBioRxiv         SourceType = "biorxiv"
	SourceTypeMedRxiv         SourceType = "medrxiv"
	SourceTypePMC             SourceType = "pmc"
	SourceTypePLOS            SourceType = "plos"
	SourceTypeDOAJ            SourceType = "doaj"
	SourceTypeSemanticScholar SourceType = "semantic_scholar"
)

// AllSourceTypes lists every source the crawler can be asked to drive,
// in the default iteration order.
var AllSourceTypes = []SourceType{
	SourceTypeArXiv,
	SourceTypeBioRxiv,
	SourceTypePMC,
	SourceTypePLOS,
	SourceTypeDOAJ,
	SourceTypeArXivRSS,
	SourceTypeSemanticScholar,
}

// ParseSourceType converts a string to a SourceType.
// Returns false if the value is not a known source.
func ParseSourceType(s string) (SourceType, bool) {
	st := SourceType(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case SourceTypeArXiv, SourceTypeArXivRSS, SourceTypeBioRxiv, SourceTypeMedRxiv,
		SourceTypePMC, SourceTypePLOS, SourceTypeDOAJ, SourceTypeSemanticScholar:
		return st, true
	}
	return "", false
}

// Paper is the canonical record for one publication, independent of which
// platform indexed it. PaperID is the stable deduplication key: re-crawling the
// same external paper must produce the same PaperID (see the ArXivPaperID and
// related constructors).
type Paper struct {
	PaperID       string
	ExternalID    string
	Platform      SourceType
	Title         string
	Abstract      string
	Authors       []string
	Categories    []string
	PDFURL        string
	PublishedDate time.Time
	UpdatedDate   time.Time
	CrawledDate   *time.Time
	Year          int
	Embedding     []float32
	ReferenceIDs  []string
	CitedByIDs    []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ArXivPaperID builds the canonical paper ID for an arXiv identifier by
// stripping the version suffix: "1706.03762v7" -> "1706.03762".
// Old-style identifiers ("hep-th/9901001v2") are handled the same way.
func ArXivPaperID(arxivID string) string {
	id := strings.TrimSpace(arxivID)
	if i := strings.LastIndex(id, "v"); i > 0 {
		if _, rest := id[:i], id[i+1:]; rest != "" && isDigits(rest) {
			return id[:i]
		}
	}
	return id
}

// BioRxivPaperID builds the canonical paper ID for a bioRxiv/medRxiv DOI.
// The server name namespaces the ID; slashes in the DOI are not valid in a key.
func BioRxivPaperID(server, doi string) string {
	return server + "_" + strings.ReplaceAll(strings.TrimSpace(doi), "/", "_")
}

// PMCPaperID builds the canonical paper ID for a PubMed Central article.
func PMCPaperID(pmcID string) string {
	id := strings.TrimSpace(pmcID)
	if strings.HasPrefix(id, "PMC") {
		return id
	}
	return "PMC" + id
}

// PLOSPaperID builds the canonical paper ID for a PLOS DOI.
func PLOSPaperID(doi string) string {
	return "PLOS_" + strings.ReplaceAll(strings.TrimSpace(doi), "/", "_")
}

// DOAJPaperID builds the canonical paper ID for a DOAJ article ID.
func DOAJPaperID(articleID string) string {
	return "DOAJ_" + strings.ReplaceAll(strings.TrimSpace(articleID), "/", "_")
}

// SemanticScholarPaperID builds the canonical paper ID for a Semantic Scholar
// paper ID.
func SemanticScholarPaperID(s2ID string) string {
	return "S2_" + strings.TrimSpace(s2ID)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// HasIdentifier returns true if the paper has a canonical identifier.
func (p *Paper) HasIdentifier() bool {
	return p.PaperID != ""
}

// InDateWindow reports whether the paper's published date falls inside the
// half-open-ended window [from, to]. A nil bound is unconstrained. Papers
// without a published date are always included.
func (p *Paper) InDateWindow(from, to *time.Time) bool {
	if p.PublishedDate.IsZero() {
		return true
	}
	if from != nil && p.PublishedDate.Before(*from) {
		return false
	}
	if to != nil && p.PublishedDate.After(*to) {
		return false
	}
	return true
}

// DeriveYear sets Year from PublishedDate when unset.
func (p *Paper) DeriveYear() {
	if p.Year == 0 && !p.PublishedDate.IsZero() {
		p.Year = p.PublishedDate.Year()
	}
}

// ParsePaperID recovers the platform and platform-native identifier from a
// canonical paper ID, inverting the *PaperID constructors. IDs with a DOI
// component get their slashes restored. Unprefixed IDs are treated as arXiv.
//
// The inversion is lossy for DOIs that themselves contain underscores: the
// canonical form encodes DOI slashes as underscores, so restoreDOI turns
// every underscore back into a slash. Such DOIs are rare but valid; callers
// that need the exact DOI should read it from the stored paper's ExternalID
// rather than reparse the canonical ID.
func ParsePaperID(paperID string) (SourceType, string, bool) {
	id := strings.TrimSpace(paperID)
	switch {
	case id == "":
		return "", "", false
	case strings.HasPrefix(id, "biorxiv_"):
		return SourceTypeBioRxiv, restoreDOI(strings.TrimPrefix(id, "biorxiv_")), true
	case strings.HasPrefix(id, "medrxiv_"):
		return SourceTypeMedRxiv, restoreDOI(strings.TrimPrefix(id, "medrxiv_")), true
	case strings.HasPrefix(id, "PLOS_"):
		return SourceTypePLOS, restoreDOI(strings.TrimPrefix(id, "PLOS_")), true
	case strings.HasPrefix(id, "DOAJ_"):
		return SourceTypeDOAJ, strings.TrimPrefix(id, "DOAJ_"), true
	case strings.HasPrefix(id, "S2_"):
		return SourceTypeSemanticScholar, strings.TrimPrefix(id, "S2_"), true
	case strings.HasPrefix(id, "PMC"):
		return SourceTypePMC, id, true
	default:
		return SourceTypeArXiv, id, true
	}
}

// restoreDOI undoes the slash-to-underscore encoding used by the DOI-based
// *PaperID constructors. Underscores that were part of the original DOI are
// indistinguishable from encoded slashes and come back as slashes.
func restoreDOI(s string) string {
	return strings.ReplaceAll(s, "_", "/")
}
