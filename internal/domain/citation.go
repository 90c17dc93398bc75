package domain

import "time"

// Citation is the directed fact "CitingPaperID cites CitedPaperID".
// The ordered pair is the composite primary key; edges are never updated.
// Either endpoint may reference a paper that has not been crawled yet.
type Citation struct {
	CitingPaperID string
	CitedPaperID  string
	CreatedAt     time.Time
}

// IsSelfLoop reports whether the edge points back at its own origin.
// Self-loops are rejected at write time.
func (c Citation) IsSelfLoop() bool {
	return c.CitingPaperID == c.CitedPaperID
}

// Valid reports whether both endpoints are present and distinct.
func (c Citation) Valid() bool {
	return c.CitingPaperID != "" && c.CitedPaperID != "" && !c.IsSelfLoop()
}

// CitationsFromPaper derives the citation edges a paper declares through its
// ReferenceIDs (paper cites X) and CitedByIDs (Y cites paper). Self-loops and
// empty identifiers are dropped; duplicates within one paper are collapsed.
func CitationsFromPaper(p *Paper) []Citation {
	seen := make(map[[2]string]struct{}, len(p.ReferenceIDs)+len(p.CitedByIDs))
	edges := make([]Citation, 0, len(p.ReferenceIDs)+len(p.CitedByIDs))

	add := func(citing, cited string) {
		c := Citation{CitingPaperID: citing, CitedPaperID: cited}
		if !c.Valid() {
			return
		}
		key := [2]string{citing, cited}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		edges = append(edges, c)
	}

	for _, cited := range p.ReferenceIDs {
		add(p.PaperID, cited)
	}
	for _, citing := range p.CitedByIDs {
		add(citing, p.PaperID)
	}
	return edges
}
