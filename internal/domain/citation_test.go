package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCitationValid(t *testing.T) {
	tests := []struct {
		name     string
		citation Citation
		valid    bool
	}{
		{
			name:     "valid edge",
			citation: Citation{CitingPaperID: "A", CitedPaperID: "B"},
			valid:    true,
		},
		{
			name:     "self loop",
			citation: Citation{CitingPaperID: "A", CitedPaperID: "A"},
			valid:    false,
		},
		{
			name:     "missing citing",
			citation: Citation{CitedPaperID: "B"},
			valid:    false,
		},
		{
			name:     "missing cited",
			citation: Citation{CitingPaperID: "A"},
			valid:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.citation.Valid())
		})
	}
}

func TestCitationsFromPaper(t *testing.T) {
	t.Run("derives edges in both directions", func(t *testing.T) {
		p := &Paper{
			PaperID:      "1706.03762",
			ReferenceIDs: []string{"S2_ref1", "S2_ref2"},
			CitedByIDs:   []string{"S2_citer1"},
		}

		edges := CitationsFromPaper(p)

		assert.Equal(t, []Citation{
			{CitingPaperID: "1706.03762", CitedPaperID: "S2_ref1"},
			{CitingPaperID: "1706.03762", CitedPaperID: "S2_ref2"},
			{CitingPaperID: "S2_citer1", CitedPaperID: "1706.03762"},
		}, edges)
	})

	t.Run("skips self loops", func(t *testing.T) {
		p := &Paper{
			PaperID:      "P",
			ReferenceIDs: []string{"P", "Q"},
			CitedByIDs:   []string{"P"},
		}

		edges := CitationsFromPaper(p)

		assert.Equal(t, []Citation{
			{CitingPaperID: "P", CitedPaperID: "Q"},
		}, edges)
	})

	t.Run("collapses duplicates", func(t *testing.T) {
		p := &Paper{
			PaperID:      "P",
			ReferenceIDs: []string{"Q", "Q"},
		}

		edges := CitationsFromPaper(p)
		assert.Len(t, edges, 1)
	})

	t.Run("drops empty identifiers", func(t *testing.T) {
		p := &Paper{
			PaperID:      "P",
			ReferenceIDs: []string{"", "Q"},
			CitedByIDs:   []string{""},
		}

		edges := CitationsFromPaper(p)
		assert.Equal(t, []Citation{
			{CitingPaperID: "P", CitedPaperID: "Q"},
		}, edges)
	})

	t.Run("no lists yields no edges", func(t *testing.T) {
		p := &Paper{PaperID: "P"}
		assert.Empty(t, CitationsFromPaper(p))
	})
}
