// Package graph builds citation neighborhood graphs around a seed paper.
package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/citegraph/citation-graph-service/internal/config"
	"github.com/citegraph/citation-graph-service/internal/domain"
	"github.com/citegraph/citation-graph-service/internal/observability"
	"github.com/citegraph/citation-graph-service/internal/repository"
)

// Node groups.
const (
	GroupCentral = "central"
	GroupCited   = "cited"
	GroupCiting  = "citing"
)

// Edge labels. Both labels describe the same directed "from cites to" fact;
// the label records from which side of the frontier the edge was discovered.
const (
	LabelCites   = "cites"
	LabelCitedBy = "cited by"
)

// Node is one paper in the rendered graph.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Group string `json:"group"`
	Year  int    `json:"year,omitempty"`
}

// Edge is one citation in the rendered graph.
type Edge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Arrows string `json:"arrows"`
	Label  string `json:"label"`
}

// Graph is the result of one neighborhood query.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// SeedFetcher pulls an absent seed paper from its platform and persists it.
// *crawler.Service satisfies this interface.
type SeedFetcher interface {
	CrawlAndSaveByID(ctx context.Context, paperID string) (*domain.Paper, error)
}

// Builder runs bounded breadth-first traversals over the citation store.
// Only papers present in the store become nodes: an edge whose endpoint has
// not been crawled yet is invisible until that paper lands.
type Builder struct {
	papers    repository.PaperRepository
	citations repository.CitationRepository
	fetcher   SeedFetcher

	defaultDepth int
	maxDepth     int
	maxNodes     int

	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewBuilder creates a graph builder. fetcher and metrics may be nil; without
// a fetcher an absent seed is simply not found.
func NewBuilder(
	papers repository.PaperRepository,
	citations repository.CitationRepository,
	fetcher SeedFetcher,
	cfg config.GraphConfig,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Builder {
	return &Builder{
		papers:       papers,
		citations:    citations,
		fetcher:      fetcher,
		defaultDepth: cfg.DefaultDepth,
		maxDepth:     cfg.MaxDepth,
		maxNodes:     cfg.MaxNodes,
		logger:       logger.With().Str("component", "graph").Logger(),
		metrics:      metrics,
	}
}

type frontierEntry struct {
	paperID string
	depth   int
}

// Build traverses the citation store breadth-first from the seed. A negative
// depth uses the configured default; the configured maximum caps it. Depth 0
// returns only the seed node. A seed absent from the store is fetched from
// its platform first; if that fails too, the query is a not-found error.
func (b *Builder) Build(ctx context.Context, seedID string, depth int) (*Graph, error) {
	if seedID == "" {
		return nil, domain.NewValidationError("paper_id", "paper_id is required")
	}
	if depth < 0 {
		depth = b.defaultDepth
	}
	if b.maxDepth > 0 && depth > b.maxDepth {
		depth = b.maxDepth
	}

	start := time.Now()
	logger := observability.WithGraphContext(b.logger, seedID, depth)

	seed, err := b.loadSeed(ctx, logger, seedID)
	if err != nil {
		return nil, err
	}

	g := &Graph{
		Nodes: []Node{{ID: seed.PaperID, Label: seed.Title, Group: GroupCentral, Year: seed.Year}},
		Edges: []Edge{},
	}
	seen := map[string]bool{seed.PaperID: true}
	edgeSeen := map[[3]string]bool{}
	truncated := false

	queue := []frontierEntry{{paperID: seed.PaperID, depth: 0}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.depth >= depth {
			continue
		}

		citedIDs, err := b.citations.ListCiting(ctx, current.paperID)
		if err != nil {
			return nil, fmt.Errorf("failed to expand %s: %w", current.paperID, err)
		}
		citingIDs, err := b.citations.ListCitedBy(ctx, current.paperID)
		if err != nil {
			return nil, fmt.Errorf("failed to expand %s: %w", current.paperID, err)
		}

		known, err := b.loadNeighbors(ctx, seen, citedIDs, citingIDs)
		if err != nil {
			return nil, err
		}

		for _, citedID := range citedIDs {
			// Endpoints not yet crawled stay invisible.
			if !seen[citedID] && known[citedID] == nil {
				continue
			}
			if paper := known[citedID]; paper != nil && !seen[citedID] {
				if len(g.Nodes) >= b.maxNodes {
					truncated = true
					break
				}
				g.Nodes = append(g.Nodes, Node{ID: paper.PaperID, Label: paper.Title, Group: GroupCited, Year: paper.Year})
				seen[citedID] = true
				queue = append(queue, frontierEntry{paperID: citedID, depth: current.depth + 1})
			}
			key := [3]string{current.paperID, citedID, LabelCites}
			if !edgeSeen[key] {
				edgeSeen[key] = true
				g.Edges = append(g.Edges, Edge{From: current.paperID, To: citedID, Arrows: "to", Label: LabelCites})
			}
		}

		for _, citingID := range citingIDs {
			if !seen[citingID] && known[citingID] == nil {
				continue
			}
			if paper := known[citingID]; paper != nil && !seen[citingID] {
				if len(g.Nodes) >= b.maxNodes {
					truncated = true
					break
				}
				g.Nodes = append(g.Nodes, Node{ID: paper.PaperID, Label: paper.Title, Group: GroupCiting, Year: paper.Year})
				seen[citingID] = true
				queue = append(queue, frontierEntry{paperID: citingID, depth: current.depth + 1})
			}
			key := [3]string{citingID, current.paperID, LabelCitedBy}
			if !edgeSeen[key] {
				edgeSeen[key] = true
				g.Edges = append(g.Edges, Edge{From: citingID, To: current.paperID, Arrows: "to", Label: LabelCitedBy})
			}
		}

		if truncated {
			break
		}
	}

	if truncated {
		logger.Warn().Int("max_nodes", b.maxNodes).Msg("graph truncated at node budget")
	}
	if b.metrics != nil {
		b.metrics.RecordGraphQuery(len(g.Nodes), time.Since(start).Seconds())
	}
	logger.Debug().Int("nodes", len(g.Nodes)).Int("edges", len(g.Edges)).Msg("graph built")

	return g, nil
}

// loadSeed fetches the seed from the store, lazily crawling it when absent.
func (b *Builder) loadSeed(ctx context.Context, logger zerolog.Logger, seedID string) (*domain.Paper, error) {
	seed, err := b.papers.GetByPaperID(ctx, seedID)
	if err == nil {
		return seed, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if b.fetcher == nil {
		return nil, domain.NewNotFoundError("paper", seedID)
	}

	logger.Info().Msg("seed paper not in store, crawling by ID")
	if _, err := b.fetcher.CrawlAndSaveByID(ctx, seedID); err != nil {
		logger.Warn().Err(err).Msg("failed to crawl seed paper")
		return nil, domain.NewNotFoundError("paper", seedID)
	}

	return b.papers.GetByPaperID(ctx, seedID)
}

// loadNeighbors fetches frontier endpoints that are not already in the graph.
func (b *Builder) loadNeighbors(ctx context.Context, seen map[string]bool, idLists ...[]string) (map[string]*domain.Paper, error) {
	var missing []string
	dedup := map[string]bool{}
	for _, ids := range idLists {
		for _, id := range ids {
			if !seen[id] && !dedup[id] {
				dedup[id] = true
				missing = append(missing, id)
			}
		}
	}

	known := make(map[string]*domain.Paper, len(missing))
	if len(missing) == 0 {
		return known, nil
	}

	papers, err := b.papers.GetByPaperIDs(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("failed to load neighbor papers: %w", err)
	}
	for _, p := range papers {
		known[p.PaperID] = p
	}
	return known, nil
}
