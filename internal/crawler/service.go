package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/citegraph/citation-graph-service/internal/citations"
	"github.com/citegraph/citation-graph-service/internal/domain"
	"github.com/citegraph/citation-graph-service/internal/ingest"
	"github.com/citegraph/citation-graph-service/internal/observability"
	"github.com/citegraph/citation-graph-service/internal/repository"
)

// Resolver matches a paper against the citation index.
// *citations.Resolver satisfies this interface.
type Resolver interface {
	Resolve(ctx context.Context, paper *domain.Paper) citations.Resolution
}

// Embedder produces a vector for a paper, or nil when it cannot.
// *embedding.Client satisfies this interface.
type Embedder interface {
	EmbedPaper(ctx context.Context, title, abstract string) []float32
}

// Gateway persists a crawled batch.
// *ingest.Gateway satisfies this interface.
type Gateway interface {
	SavePapers(ctx context.Context, papers []*domain.Paper) (*ingest.Result, error)
}

// Publisher announces finished crawl runs.
// *events.Publisher satisfies this interface.
type Publisher interface {
	PublishCrawlFinished(ctx context.Context, run *domain.CrawlRun) error
}

// Report is the outcome of one crawl-and-persist cycle.
type Report struct {
	Run    *domain.CrawlRun
	Papers []*domain.Paper
}

// Service composes the orchestrator, resolver, embedder and gateway into the
// synchronous crawl pipeline. Every call is tracked as a CrawlRun.
type Service struct {
	orchestrator *Orchestrator
	resolver     Resolver
	embedder     Embedder
	gateway      Gateway
	runs         repository.CrawlRunRepository
	publisher    Publisher
	logger       zerolog.Logger
	metrics      *observability.Metrics
}

// NewService creates the crawl service. resolver, embedder, publisher and
// metrics may be nil; the corresponding stage is skipped.
func NewService(
	orchestrator *Orchestrator,
	resolver Resolver,
	embedder Embedder,
	gateway Gateway,
	runs repository.CrawlRunRepository,
	publisher Publisher,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		orchestrator: orchestrator,
		resolver:     resolver,
		embedder:     embedder,
		gateway:      gateway,
		runs:         runs,
		publisher:    publisher,
		logger:       logger.With().Str("component", "crawl_service").Logger(),
		metrics:      metrics,
	}
}

// CrawlAndSave crawls the requested platforms, enriches the papers with
// citation neighborhoods and embeddings, and persists the batch. The run
// completes as partial when some platforms failed but papers still landed.
func (s *Service) CrawlAndSave(ctx context.Context, query string, sourceTypes []domain.SourceType, maxPerSource int, from, to *time.Time) (*Report, error) {
	if len(sourceTypes) == 0 {
		sourceTypes = domain.AllSourceTypes
	}

	run := domain.NewCrawlRun(query, sourceTypes)
	logger := observability.WithCrawlContext(s.logger, run.ID.String(), query)
	start := time.Now()
	if s.metrics != nil {
		s.metrics.RecordCrawlStarted()
	}

	if err := s.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record crawl run: %w", err)
	}
	run.Start()
	s.persistRun(ctx, logger, run)

	papers, sourceErrors := s.orchestrator.Crawl(ctx, query, sourceTypes, maxPerSource, from, to)
	run.PapersFound = len(papers)

	if len(papers) == 0 && sourceErrors == len(sourceTypes) {
		run.Fail("all platforms failed")
		s.persistRun(ctx, logger, run)
		s.publishRun(ctx, logger, run)
		if s.metrics != nil {
			s.metrics.RecordCrawlFailed(time.Since(start).Seconds())
		}
		return nil, fmt.Errorf("crawl %s: all platforms failed", run.ID)
	}

	s.enrich(ctx, papers)

	result, err := s.gateway.SavePapers(ctx, papers)
	if err != nil {
		run.Fail(err.Error())
		s.persistRun(ctx, logger, run)
		s.publishRun(ctx, logger, run)
		if s.metrics != nil {
			s.metrics.RecordCrawlFailed(time.Since(start).Seconds())
		}
		return nil, fmt.Errorf("crawl %s: %w", run.ID, err)
	}

	run.PapersSaved = result.Saved
	run.PapersUpdated = result.Updated
	run.CitationsAdded = result.CitationsAdded
	run.Complete(sourceErrors)
	s.persistRun(ctx, logger, run)
	s.publishRun(ctx, logger, run)

	if s.metrics != nil {
		s.metrics.RecordCrawlCompleted(time.Since(start).Seconds())
	}
	logger.Info().
		Str("status", string(run.Status)).
		Int("found", run.PapersFound).
		Int("saved", run.PapersSaved).
		Int("updated", run.PapersUpdated).
		Int("citations_added", run.CitationsAdded).
		Msg("crawl run finished")

	return &Report{Run: run, Papers: papers}, nil
}

// CrawlAndSaveByID fetches one paper by its canonical ID from the platform
// the ID encodes, enriches it, and persists it. Used by the graph builder to
// lazily pull a seed that is not in the store yet.
func (s *Service) CrawlAndSaveByID(ctx context.Context, paperID string) (*domain.Paper, error) {
	platform, externalID, ok := domain.ParsePaperID(paperID)
	if !ok {
		return nil, domain.NewValidationError("paper_id", "cannot parse paper ID")
	}

	src := s.orchestrator.registry.Get(platform)
	if src == nil || !src.IsEnabled() {
		return nil, domain.NewNotFoundError("source", string(platform))
	}

	paper, err := src.GetByID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s from %s: %w", paperID, platform, err)
	}

	batch := []*domain.Paper{paper}
	s.enrich(ctx, batch)

	if _, err := s.gateway.SavePapers(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to persist %s: %w", paperID, err)
	}

	return paper, nil
}

// enrich stamps the crawl time, derives years, resolves citation
// neighborhoods and attaches embeddings. Enrichment failures degrade the
// paper, never the batch.
func (s *Service) enrich(ctx context.Context, papers []*domain.Paper) {
	now := time.Now().UTC()
	for _, paper := range papers {
		paper.CrawledDate = &now
		paper.DeriveYear()

		if s.resolver != nil && len(paper.ReferenceIDs) == 0 && len(paper.CitedByIDs) == 0 {
			resolution := s.resolver.Resolve(ctx, paper)
			if resolution.Matched {
				paper.ReferenceIDs = resolution.ReferenceIDs
				paper.CitedByIDs = resolution.CitedByIDs
			}
		}

		if s.embedder != nil && paper.Embedding == nil {
			paper.Embedding = s.embedder.EmbedPaper(ctx, paper.Title, paper.Abstract)
		}
	}
}

func (s *Service) persistRun(ctx context.Context, logger zerolog.Logger, run *domain.CrawlRun) {
	if err := s.runs.Update(ctx, run); err != nil {
		logger.Error().Err(err).Msg("failed to persist crawl run state")
	}
}

func (s *Service) publishRun(ctx context.Context, logger zerolog.Logger, run *domain.CrawlRun) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishCrawlFinished(ctx, run); err != nil {
		logger.Warn().Err(err).Msg("failed to publish crawl event")
	}
}
