package crawler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citegraph/citation-graph-service/internal/citations"
	"github.com/citegraph/citation-graph-service/internal/domain"
	"github.com/citegraph/citation-graph-service/internal/ingest"
	"github.com/citegraph/citation-graph-service/internal/sources"
)

type fakeRunRepo struct {
	created []*domain.CrawlRun
	updates []domain.CrawlRun
}

func (f *fakeRunRepo) Create(_ context.Context, run *domain.CrawlRun) error {
	f.created = append(f.created, run)
	return nil
}

func (f *fakeRunRepo) Update(_ context.Context, run *domain.CrawlRun) error {
	f.updates = append(f.updates, *run)
	return nil
}

func (f *fakeRunRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.CrawlRun, error) {
	return nil, domain.NewNotFoundError("crawl run", id.String())
}

func (f *fakeRunRepo) ListRecent(_ context.Context, _ int) ([]*domain.CrawlRun, error) {
	return nil, nil
}

func (f *fakeRunRepo) lastStatus() domain.CrawlStatus {
	return f.updates[len(f.updates)-1].Status
}

type fakeGateway struct {
	saved   [][]*domain.Paper
	result  *ingest.Result
	saveErr error
}

func (f *fakeGateway) SavePapers(_ context.Context, papers []*domain.Paper) (*ingest.Result, error) {
	f.saved = append(f.saved, papers)
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	if f.result != nil {
		return f.result, nil
	}
	return &ingest.Result{Saved: len(papers)}, nil
}

type fakeResolver struct {
	resolutions map[string]citations.Resolution
}

func (f *fakeResolver) Resolve(_ context.Context, paper *domain.Paper) citations.Resolution {
	return f.resolutions[paper.PaperID]
}

type fakeEmbedder struct {
	vector []float32
}

func (f *fakeEmbedder) EmbedPaper(_ context.Context, _, _ string) []float32 {
	return f.vector
}

type fakePublisher struct {
	published []*domain.CrawlRun
}

func (f *fakePublisher) PublishCrawlFinished(_ context.Context, run *domain.CrawlRun) error {
	f.published = append(f.published, run)
	return nil
}

func newServiceHarness(t *testing.T, srcs ...sources.Source) (*Service, *fakeRunRepo, *fakeGateway, *fakePublisher) {
	t.Helper()

	registry := sources.NewRegistry()
	for _, s := range srcs {
		registry.Register(s)
	}
	orchestrator := NewOrchestrator(registry, 10, zerolog.Nop(), nil)
	runs := &fakeRunRepo{}
	gateway := &fakeGateway{}
	publisher := &fakePublisher{}

	svc := NewService(orchestrator, nil, nil, gateway, runs, publisher, zerolog.Nop(), nil)
	return svc, runs, gateway, publisher
}

func TestService_CrawlAndSave(t *testing.T) {
	ctx := context.Background()
	published := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("full pipeline completes a run", func(t *testing.T) {
		src := &fakeSource{
			sourceType: domain.SourceTypeArXiv,
			enabled:    true,
			pages: []*sources.SearchResult{
				{Papers: []*domain.Paper{testPaper("a", published), testPaper("b", published)}},
			},
		}
		svc, runs, gateway, publisher := newServiceHarness(t, src)
		gateway.result = &ingest.Result{Saved: 1, Updated: 1, CitationsAdded: 4}

		report, err := svc.CrawlAndSave(ctx, "q", []domain.SourceType{domain.SourceTypeArXiv}, 10, nil, nil)
		require.NoError(t, err)

		require.Len(t, runs.created, 1)
		assert.Equal(t, domain.CrawlStatusCompleted, runs.lastStatus())
		assert.Equal(t, 2, report.Run.PapersFound)
		assert.Equal(t, 1, report.Run.PapersSaved)
		assert.Equal(t, 1, report.Run.PapersUpdated)
		assert.Equal(t, 4, report.Run.CitationsAdded)
		require.Len(t, publisher.published, 1)

		// papers are stamped with the crawl time before persistence
		require.Len(t, gateway.saved, 1)
		for _, p := range gateway.saved[0] {
			assert.NotNil(t, p.CrawledDate)
			assert.Equal(t, 2024, p.Year)
		}
	})

	t.Run("source errors complete the run as partial", func(t *testing.T) {
		failing := &fakeSource{
			sourceType: domain.SourceTypePLOS,
			enabled:    true,
			searchErr:  errors.New("upstream 500"),
		}
		healthy := &fakeSource{
			sourceType: domain.SourceTypeArXiv,
			enabled:    true,
			pages:      []*sources.SearchResult{{Papers: []*domain.Paper{testPaper("a", published)}}},
		}
		svc, runs, _, _ := newServiceHarness(t, failing, healthy)

		report, err := svc.CrawlAndSave(ctx, "q",
			[]domain.SourceType{domain.SourceTypePLOS, domain.SourceTypeArXiv}, 10, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.CrawlStatusPartial, runs.lastStatus())
		assert.Equal(t, 1, report.Run.PapersFound)
	})

	t.Run("all platforms failing fails the run", func(t *testing.T) {
		failing := &fakeSource{
			sourceType: domain.SourceTypeArXiv,
			enabled:    true,
			searchErr:  errors.New("down"),
		}
		svc, runs, gateway, publisher := newServiceHarness(t, failing)

		_, err := svc.CrawlAndSave(ctx, "q", []domain.SourceType{domain.SourceTypeArXiv}, 10, nil, nil)
		require.Error(t, err)
		assert.Equal(t, domain.CrawlStatusFailed, runs.lastStatus())
		assert.Empty(t, gateway.saved)
		require.Len(t, publisher.published, 1)
		assert.Equal(t, domain.CrawlStatusFailed, publisher.published[0].Status)
	})

	t.Run("persistence failure fails the run", func(t *testing.T) {
		src := &fakeSource{
			sourceType: domain.SourceTypeArXiv,
			enabled:    true,
			pages:      []*sources.SearchResult{{Papers: []*domain.Paper{testPaper("a", published)}}},
		}
		svc, runs, gateway, _ := newServiceHarness(t, src)
		gateway.saveErr = errors.New("disk full")

		_, err := svc.CrawlAndSave(ctx, "q", []domain.SourceType{domain.SourceTypeArXiv}, 10, nil, nil)
		require.Error(t, err)
		assert.Equal(t, domain.CrawlStatusFailed, runs.lastStatus())
	})

	t.Run("resolver fills citation neighborhoods", func(t *testing.T) {
		src := &fakeSource{
			sourceType: domain.SourceTypeArXiv,
			enabled:    true,
			pages:      []*sources.SearchResult{{Papers: []*domain.Paper{testPaper("a", published)}}},
		}
		svc, _, gateway, _ := newServiceHarness(t, src)
		svc.resolver = &fakeResolver{resolutions: map[string]citations.Resolution{
			"a": {Matched: true, S2PaperID: "s2a", ReferenceIDs: []string{"S2_r1"}, CitedByIDs: []string{"S2_c1"}},
		}}
		svc.embedder = &fakeEmbedder{vector: []float32{0.5}}

		_, err := svc.CrawlAndSave(ctx, "q", []domain.SourceType{domain.SourceTypeArXiv}, 10, nil, nil)
		require.NoError(t, err)

		saved := gateway.saved[0][0]
		assert.Equal(t, []string{"S2_r1"}, saved.ReferenceIDs)
		assert.Equal(t, []string{"S2_c1"}, saved.CitedByIDs)
		assert.Equal(t, []float32{0.5}, saved.Embedding)
	})
}

func TestService_CrawlAndSaveByID(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches and persists a single paper", func(t *testing.T) {
		paper := testPaper("1706.03762", time.Date(2017, 6, 12, 0, 0, 0, 0, time.UTC))
		src := &fakeSource{
			sourceType: domain.SourceTypeArXiv,
			enabled:    true,
			byID:       map[string]*domain.Paper{"1706.03762": paper},
		}
		svc, _, gateway, _ := newServiceHarness(t, src)

		got, err := svc.CrawlAndSaveByID(ctx, "1706.03762")
		require.NoError(t, err)
		assert.Equal(t, "1706.03762", got.PaperID)
		assert.NotNil(t, got.CrawledDate)
		require.Len(t, gateway.saved, 1)
	})

	t.Run("unknown paper propagates the lookup error", func(t *testing.T) {
		src := &fakeSource{
			sourceType: domain.SourceTypeArXiv,
			enabled:    true,
			byID:       map[string]*domain.Paper{},
		}
		svc, _, _, _ := newServiceHarness(t, src)

		_, err := svc.CrawlAndSaveByID(ctx, "0000.00000")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("unregistered platform is not found", func(t *testing.T) {
		svc, _, _, _ := newServiceHarness(t)

		_, err := svc.CrawlAndSaveByID(ctx, "PMC123")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}
