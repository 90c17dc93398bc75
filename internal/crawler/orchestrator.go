// Package crawler drives multi-platform paper discovery and persistence.
package crawler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/citegraph/citation-graph-service/internal/domain"
	"github.com/citegraph/citation-graph-service/internal/observability"
	"github.com/citegraph/citation-graph-service/internal/sources"
)

// Orchestrator fans one crawl request out across the registered platforms.
// Platforms are crawled in request order, one page at a time, and a platform
// failure never poisons the others: its papers so far are kept and the
// failure is reported in the source-error count.
type Orchestrator struct {
	registry *sources.Registry
	maxPages int
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

// NewOrchestrator creates a crawl orchestrator. maxPages bounds the pagination
// loop per platform (0 means no bound). metrics may be nil.
func NewOrchestrator(registry *sources.Registry, maxPages int, logger zerolog.Logger, metrics *observability.Metrics) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		maxPages: maxPages,
		logger:   logger.With().Str("component", "crawler").Logger(),
		metrics:  metrics,
	}
}

// Crawl collects up to maxPerSource papers from each requested platform,
// filtered to the [from, to] publication window. Papers seen on more than one
// platform collapse to a single entry, the later platform winning. The second
// return value counts platforms that failed or were missing.
func (o *Orchestrator) Crawl(ctx context.Context, query string, sourceTypes []domain.SourceType, maxPerSource int, from, to *time.Time) ([]*domain.Paper, int) {
	if len(sourceTypes) == 0 {
		sourceTypes = domain.AllSourceTypes
	}

	byID := make(map[string]int, maxPerSource*len(sourceTypes))
	ordered := make([]*domain.Paper, 0, maxPerSource*len(sourceTypes))
	sourceErrors := 0

	for _, sourceType := range sourceTypes {
		src := o.registry.Get(sourceType)
		if src == nil {
			o.logger.Warn().Str("source", string(sourceType)).Msg("source not registered")
			sourceErrors++
			continue
		}
		if !src.IsEnabled() {
			o.logger.Debug().Str("source", src.Name()).Msg("source disabled, skipping")
			continue
		}

		papers, err := o.crawlSource(ctx, src, query, maxPerSource, from, to)
		if err != nil {
			sourceErrors++
		}
		for _, paper := range papers {
			if i, seen := byID[paper.PaperID]; seen {
				ordered[i] = paper
				continue
			}
			byID[paper.PaperID] = len(ordered)
			ordered = append(ordered, paper)
		}
	}

	o.logger.Info().
		Str("query", query).
		Int("papers", len(ordered)).
		Int("source_errors", sourceErrors).
		Msg("crawl finished")

	return ordered, sourceErrors
}

// crawlSource pages through one platform until the limit, exhaustion, or a
// failure. On failure the papers collected so far are still returned.
func (o *Orchestrator) crawlSource(ctx context.Context, src sources.Source, query string, maxPerSource int, from, to *time.Time) ([]*domain.Paper, error) {
	logger := observability.WithSourceContext(o.logger, src.Name(), "")
	start := time.Now()
	if o.metrics != nil {
		o.metrics.RecordSearchStarted(src.Name())
	}

	collected := make([]*domain.Paper, 0, maxPerSource)
	offset := 0

	for page := 0; o.maxPages <= 0 || page < o.maxPages; page++ {
		params := sources.SearchParams{
			Query:      query,
			DateFrom:   from,
			DateTo:     to,
			MaxResults: maxPerSource - len(collected),
			Offset:     offset,
		}

		result, err := src.Search(ctx, params)
		if err != nil {
			if o.metrics != nil {
				o.metrics.RecordSearchFailed(src.Name(), time.Since(start).Seconds())
			}
			logger.Error().Err(err).Int("page", page).Msg("platform search failed")
			return collected, err
		}

		for _, paper := range result.Papers {
			if paper == nil || !paper.HasIdentifier() {
				logger.Debug().Msg("skipping paper without identifier")
				continue
			}
			if paper.Title == "" {
				logger.Debug().Str("paper_id", paper.PaperID).Msg("skipping paper without title")
				continue
			}
			if !paper.InDateWindow(from, to) {
				logger.Debug().
					Str("paper_id", paper.PaperID).
					Time("published", paper.PublishedDate).
					Msg("paper outside date window")
				continue
			}
			collected = append(collected, paper)
			if len(collected) >= maxPerSource {
				break
			}
		}

		if len(collected) >= maxPerSource || !result.HasMore {
			break
		}
		offset = result.NextOffset
	}

	if o.metrics != nil {
		o.metrics.RecordSearchCompleted(src.Name(), len(collected), time.Since(start).Seconds())
		o.metrics.RecordPapersDiscovered(src.Name(), len(collected))
	}
	logger.Debug().Int("papers", len(collected)).Msg("platform crawl complete")

	return collected, nil
}
