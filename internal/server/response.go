package server

import (
	"time"

	"github.com/citegraph/citation-graph-service/internal/domain"
)

// Response types for JSON serialization.

type paperResponse struct {
	PaperID       string     `json:"paper_id"`
	Platform      string     `json:"platform"`
	ExternalID    string     `json:"external_id,omitempty"`
	Title         string     `json:"title"`
	Abstract      string     `json:"abstract,omitempty"`
	Authors       []string   `json:"authors,omitempty"`
	Categories    []string   `json:"categories,omitempty"`
	PdfURL        string     `json:"pdf_url,omitempty"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
	UpdatedDate   *time.Time `json:"updated_date,omitempty"`
	CrawledDate   *time.Time `json:"crawled_date,omitempty"`
	Year          int        `json:"year,omitempty"`
	ReferenceIDs  []string   `json:"reference_ids,omitempty"`
	CitedByIDs    []string   `json:"cited_by_ids,omitempty"`
}

type listPapersResponse struct {
	Papers     []paperResponse `json:"papers"`
	TotalCount int             `json:"total_count"`
	Limit      int             `json:"limit"`
	Offset     int             `json:"offset"`
}

type crawlResponse struct {
	RunID          string          `json:"run_id"`
	Status         string          `json:"status"`
	Query          string          `json:"query"`
	Sources        []string        `json:"sources"`
	PapersFound    int             `json:"papers_found"`
	Saved          int             `json:"saved"`
	Updated        int             `json:"updated"`
	CitationsAdded int             `json:"citations_added"`
	Duration       string          `json:"duration,omitempty"`
	Papers         []paperResponse `json:"papers"`
}

type crawlRunResponse struct {
	RunID          string     `json:"run_id"`
	Query          string     `json:"query"`
	Sources        []string   `json:"sources"`
	Status         string     `json:"status"`
	PapersFound    int        `json:"papers_found"`
	PapersSaved    int        `json:"papers_saved"`
	PapersUpdated  int        `json:"papers_updated"`
	CitationsAdded int        `json:"citations_added"`
	Error          string     `json:"error,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	Duration       string     `json:"duration,omitempty"`
}

type statusResponse struct {
	Status      string            `json:"status"`
	TotalPapers int64             `json:"total_papers"`
	LatestRun   *crawlRunResponse `json:"latest_run,omitempty"`
}

// Converter functions

func domainPaperToResponse(p *domain.Paper) paperResponse {
	return paperResponse{
		PaperID:       p.PaperID,
		Platform:      string(p.Platform),
		ExternalID:    p.ExternalID,
		Title:         p.Title,
		Abstract:      p.Abstract,
		Authors:       p.Authors,
		Categories:    p.Categories,
		PdfURL:        p.PDFURL,
		PublishedDate: nonZeroTime(p.PublishedDate),
		UpdatedDate:   nonZeroTime(p.UpdatedDate),
		CrawledDate:   p.CrawledDate,
		Year:          p.Year,
		ReferenceIDs:  p.ReferenceIDs,
		CitedByIDs:    p.CitedByIDs,
	}
}

func domainRunToResponse(r *domain.CrawlRun) crawlRunResponse {
	resp := crawlRunResponse{
		RunID:          r.ID.String(),
		Query:          r.Query,
		Sources:        sourceStrings(r.Sources),
		Status:         string(r.Status),
		PapersFound:    r.PapersFound,
		PapersSaved:    r.PapersSaved,
		PapersUpdated:  r.PapersUpdated,
		CitationsAdded: r.CitationsAdded,
		Error:          r.Error,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
	}
	if d := r.Duration(); d > 0 {
		resp.Duration = d.String()
	}
	return resp
}

func sourceStrings(sources []domain.SourceType) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = string(s)
	}
	return out
}

func nonZeroTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
