// Package citations resolves crawled papers against the Semantic Scholar
// citation index to recover their reference and cited-by neighborhoods.
package citations

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/citegraph/citation-graph-service/internal/domain"
	"github.com/citegraph/citation-graph-service/internal/observability"
)

// Resolution strategies, in fallback order.
const (
	StrategyDOI      = "doi"
	StrategyNativeID = "native_id"
	StrategyTitle    = "title"
)

// Index is the citation-index surface the resolver needs.
// *semanticscholar.Client satisfies this interface.
type Index interface {
	// LookupPaperID resolves an external reference ("DOI:...", "ARXIV:...")
	// to an index paper ID. Returns domain.ErrNotFound for unknown refs.
	LookupPaperID(ctx context.Context, externalRef string) (string, error)

	// SearchByTitle returns the ID of the paper whose title matches exactly,
	// ignoring case. Returns domain.ErrNotFound when nothing matches.
	SearchByTitle(ctx context.Context, title string) (string, error)

	// GetCitations returns the reference and citation IDs of an index paper.
	GetCitations(ctx context.Context, id string) (references, citations []string, err error)
}

// Resolution is the outcome of matching one paper against the index.
type Resolution struct {
	Matched      bool
	Strategy     string
	S2PaperID    string
	ReferenceIDs []string
	CitedByIDs   []string
}

// Resolver matches crawled papers to the citation index using a fallback
// chain: DOI lookup, then native platform ID, then exact title search.
// A resolver failure never fails the crawl; the paper just stays unmatched.
type Resolver struct {
	index   Index
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewResolver creates a citation resolver. metrics may be nil.
func NewResolver(index Index, logger zerolog.Logger, metrics *observability.Metrics) *Resolver {
	return &Resolver{
		index:   index,
		logger:  logger.With().Str("component", "citations").Logger(),
		metrics: metrics,
	}
}

// Resolve matches the paper and fetches its citation neighborhood. A lookup
// that reports not-found falls through to the next strategy; any other
// failure ends the chain with an unmatched result.
func (r *Resolver) Resolve(ctx context.Context, paper *domain.Paper) Resolution {
	start := time.Now()
	logger := r.logger.With().Str("paper_id", paper.PaperID).Logger()

	for _, attempt := range []struct {
		strategy string
		ref      string
	}{
		{StrategyDOI, doiRef(paper)},
		{StrategyNativeID, nativeRef(paper)},
	} {
		if attempt.ref == "" {
			continue
		}
		id, err := r.index.LookupPaperID(ctx, attempt.ref)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Debug().Str("strategy", attempt.strategy).Str("ref", attempt.ref).
					Msg("reference unknown to citation index")
				continue
			}
			logger.Warn().Err(err).Str("strategy", attempt.strategy).
				Msg("citation index lookup failed")
			return r.unmatched(start)
		}
		return r.matched(ctx, logger, attempt.strategy, id, start)
	}

	title := strings.TrimSpace(paper.Title)
	if title == "" {
		return r.unmatched(start)
	}
	id, err := r.index.SearchByTitle(ctx, title)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn().Err(err).Msg("citation index title search failed")
		}
		return r.unmatched(start)
	}
	return r.matched(ctx, logger, StrategyTitle, id, start)
}

func (r *Resolver) matched(ctx context.Context, logger zerolog.Logger, strategy, id string, start time.Time) Resolution {
	references, citations, err := r.index.GetCitations(ctx, id)
	if err != nil {
		logger.Warn().Err(err).Str("s2_paper_id", id).Msg("failed to fetch citation neighborhood")
		return r.unmatched(start)
	}

	if r.metrics != nil {
		r.metrics.RecordResolutionMatched(strategy, time.Since(start).Seconds())
	}
	logger.Debug().
		Str("strategy", strategy).
		Str("s2_paper_id", id).
		Int("references", len(references)).
		Int("cited_by", len(citations)).
		Msg("resolved citation neighborhood")

	return Resolution{
		Matched:      true,
		Strategy:     strategy,
		S2PaperID:    id,
		ReferenceIDs: canonicalIDs(references),
		CitedByIDs:   canonicalIDs(citations),
	}
}

func (r *Resolver) unmatched(start time.Time) Resolution {
	if r.metrics != nil {
		r.metrics.RecordResolutionUnmatched(time.Since(start).Seconds())
	}
	return Resolution{}
}

// doiRef builds a DOI external reference for platforms whose external ID is a
// DOI. Other platforms skip straight to the native-ID strategy.
func doiRef(p *domain.Paper) string {
	switch p.Platform {
	case domain.SourceTypeBioRxiv, domain.SourceTypeMedRxiv, domain.SourceTypePLOS:
		if strings.HasPrefix(p.ExternalID, "10.") {
			return "DOI:" + p.ExternalID
		}
	}
	return ""
}

// nativeRef builds a platform-native external reference.
func nativeRef(p *domain.Paper) string {
	switch p.Platform {
	case domain.SourceTypeArXiv, domain.SourceTypeArXivRSS:
		return "ARXIV:" + domain.ArXivPaperID(p.ExternalID)
	case domain.SourceTypePMC:
		return "PMCID:" + strings.TrimPrefix(p.PaperID, "PMC")
	case domain.SourceTypeSemanticScholar:
		return p.ExternalID
	}
	return ""
}

// canonicalIDs maps raw index paper IDs to canonical paper IDs so the edges
// they produce line up with papers later crawled from the index itself.
func canonicalIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.SemanticScholarPaperID(id))
	}
	return out
}
