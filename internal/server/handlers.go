package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/citegraph/citation-graph-service/internal/domain"
	"github.com/citegraph/citation-graph-service/internal/repository"
)

// Pagination and validation constants.
const (
	defaultPageSize    = 100
	maxPageSize        = 1000
	defaultCrawlLimit  = 100
	maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies
)

// crawlRequest is the JSON request body for starting a crawl.
type crawlRequest struct {
	Query     string   `json:"query" validate:"required,min=2,max=500"`
	Platforms []string `json:"platforms,omitempty" validate:"max=10"`
	Limit     int      `json:"limit,omitempty" validate:"gte=0,lte=1000"`
	StartDate string   `json:"start_date,omitempty"`
	EndDate   string   `json:"end_date,omitempty"`
}

// startCrawl handles POST /api/v1/crawl.
// It runs a synchronous crawl across the requested platforms and returns the
// gathered papers together with the persistence counters.
func (s *Server) startCrawl(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req crawlRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	var sourceTypes []domain.SourceType
	for _, p := range req.Platforms {
		st, ok := domain.ParseSourceType(p)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported platform: %s", p))
			return
		}
		sourceTypes = append(sourceTypes, st)
	}

	from, err := parseDateParam(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date: expected YYYY-MM-DD or RFC3339")
		return
	}
	to, err := parseDateParam(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_date: expected YYYY-MM-DD or RFC3339")
		return
	}
	if from != nil && to != nil && to.Before(*from) {
		writeError(w, http.StatusBadRequest, "end_date must not precede start_date")
		return
	}

	limit := req.Limit
	if limit == 0 {
		limit = defaultCrawlLimit
	}

	report, err := s.crawls.CrawlAndSave(ctx, req.Query, sourceTypes, limit, from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	papers := make([]paperResponse, len(report.Papers))
	for i, p := range report.Papers {
		papers[i] = domainPaperToResponse(p)
	}

	run := report.Run
	resp := crawlResponse{
		RunID:          run.ID.String(),
		Status:         string(run.Status),
		Query:          run.Query,
		Sources:        sourceStrings(run.Sources),
		PapersFound:    run.PapersFound,
		Saved:          run.PapersSaved,
		Updated:        run.PapersUpdated,
		CitationsAdded: run.CitationsAdded,
		Papers:         papers,
	}
	if d := run.Duration(); d > 0 {
		resp.Duration = d.String()
	}

	writeJSON(w, http.StatusOK, resp)
}

// getCitationGraph handles GET /api/v1/graph/{paperID}.
// It returns the citation neighborhood of the given paper, crawling the seed
// on demand when it is not yet stored.
func (s *Server) getCitationGraph(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	paperID := chi.URLParam(r, "paperID")

	depth := -1
	if depthParam := r.URL.Query().Get("depth"); depthParam != "" {
		parsed, err := strconv.Atoi(depthParam)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "depth must be a non-negative integer")
			return
		}
		depth = parsed
	}

	g, err := s.graphs.Build(ctx, paperID, depth)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, g)
}

// getPaper handles GET /api/v1/papers/{paperID}.
func (s *Server) getPaper(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	paperID := chi.URLParam(r, "paperID")

	paper, err := s.papers.GetByPaperID(ctx, paperID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainPaperToResponse(paper))
}

// listPapers handles GET /api/v1/papers.
// It returns a paginated list of stored papers with optional filters.
func (s *Server) listPapers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, offset := parsePaginationParams(r)

	filter := repository.PaperFilter{
		Limit:  limit,
		Offset: offset,
	}

	if platformParam := r.URL.Query().Get("platform"); platformParam != "" {
		st, ok := domain.ParseSourceType(platformParam)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported platform: %s", platformParam))
			return
		}
		filter.Platform = &st
	}

	if yearParam := r.URL.Query().Get("year"); yearParam != "" {
		year, err := strconv.Atoi(yearParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, "year must be an integer")
			return
		}
		filter.Year = &year
	}

	if categoryParam := r.URL.Query().Get("category"); categoryParam != "" {
		filter.Category = &categoryParam
	}

	papers, totalCount, err := s.papers.List(ctx, filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses := make([]paperResponse, len(papers))
	for i, p := range papers {
		responses[i] = domainPaperToResponse(p)
	}

	writeJSON(w, http.StatusOK, listPapersResponse{
		Papers:     responses,
		TotalCount: int(totalCount),
		Limit:      limit,
		Offset:     offset,
	})
}

// getStatus handles GET /api/v1/status.
// It reports the latest crawl run and the total number of stored papers.
func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	runs, err := s.runs.ListRecent(ctx, 1)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	totalPapers, err := s.papers.Count(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := statusResponse{
		Status:      "idle",
		TotalPapers: totalPapers,
	}
	if len(runs) > 0 {
		run := domainRunToResponse(runs[0])
		resp.LatestRun = &run
		resp.Status = string(runs[0].Status)
	}

	writeJSON(w, http.StatusOK, resp)
}

// writeDomainError maps domain errors to appropriate HTTP status codes and
// writes a JSON error response. Internal error details are not leaked to clients.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
		} else {
			writeError(w, http.StatusBadRequest, "invalid input")
		}
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "resource already exists")
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limited")
	case errors.Is(err, domain.ErrSourceDisabled):
		writeError(w, http.StatusBadRequest, "source disabled")
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// parseDateParam parses an optional date string in YYYY-MM-DD or RFC3339
// format. Returns nil for an empty string.
func parseDateParam(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parsePaginationParams extracts limit and offset from query parameters.
// It applies default and maximum bounds to the limit.
func parsePaginationParams(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if parsed, err := strconv.Atoi(limitParam); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	if offsetParam := r.URL.Query().Get("offset"); offsetParam != "" {
		if parsed, err := strconv.Atoi(offsetParam); err == nil && parsed > 0 {
			offset = parsed
		}
	}

	return limit, offset
}
