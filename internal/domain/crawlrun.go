package domain

import (
	"time"

	"github.com/google/uuid"
)

// CrawlStatus represents the lifecycle states of a crawl run.
// These values must match the database enum values in the crawl_runs table.
type CrawlStatus string

const (
	CrawlStatusPending   CrawlStatus = "pending"
	CrawlStatusRunning   CrawlStatus = "running"
	CrawlStatusCompleted CrawlStatus = "completed"
	CrawlStatusPartial   CrawlStatus = "partial"
	CrawlStatusFailed    CrawlStatus = "failed"
)

// IsTerminal returns true if the status represents a final state that will not change.
func (s CrawlStatus) IsTerminal() bool {
	switch s {
	case CrawlStatusCompleted, CrawlStatusPartial, CrawlStatusFailed:
		return true
	default:
		return false
	}
}

// CrawlRun records one crawl execution: what was asked for, which sources
// took part, and what ended up in the database.
type CrawlRun struct {
	ID             uuid.UUID    `json:"id"`
	Query          string       `json:"query"`
	Sources        []SourceType `json:"sources"`
	Status         CrawlStatus  `json:"status"`
	PapersFound    int          `json:"papers_found"`
	PapersSaved    int          `json:"papers_saved"`
	PapersUpdated  int          `json:"papers_updated"`
	CitationsAdded int          `json:"citations_added"`
	Error          string       `json:"error,omitempty"`
	StartedAt      time.Time    `json:"started_at"`
	FinishedAt     *time.Time   `json:"finished_at,omitempty"`
}

// NewCrawlRun creates a pending crawl run for the given query and sources.
func NewCrawlRun(query string, sources []SourceType) *CrawlRun {
	return &CrawlRun{
		ID:        uuid.New(),
		Query:     query,
		Sources:   sources,
		Status:    CrawlStatusPending,
		StartedAt: time.Now().UTC(),
	}
}

// Start marks the run as running.
func (r *CrawlRun) Start() {
	r.Status = CrawlStatusRunning
	r.StartedAt = time.Now().UTC()
}

// Complete marks the run as finished. A run where some sources failed but
// others produced papers completes as partial.
func (r *CrawlRun) Complete(sourceErrors int) {
	now := time.Now().UTC()
	r.FinishedAt = &now
	if sourceErrors > 0 {
		r.Status = CrawlStatusPartial
		return
	}
	r.Status = CrawlStatusCompleted
}

// Fail marks the run as failed with the given reason.
func (r *CrawlRun) Fail(reason string) {
	now := time.Now().UTC()
	r.FinishedAt = &now
	r.Status = CrawlStatusFailed
	r.Error = reason
}

// Duration returns how long the run took, or how long it has been running.
func (r *CrawlRun) Duration() time.Duration {
	if r.FinishedAt != nil {
		return r.FinishedAt.Sub(r.StartedAt)
	}
	return time.Since(r.StartedAt)
}
