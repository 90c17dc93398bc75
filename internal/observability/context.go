package observability

import (
	"context"
)

// Context keys for observability data.
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	crawlRunKey  contextKey = "crawl_run_id"
	sourceKey    contextKey = "source"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if not present.
func RequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithCrawlRun adds a crawl run ID to the context.
func WithCrawlRun(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, crawlRunKey, runID)
}

// CrawlRunFromContext retrieves the crawl run ID from context.
// Returns empty string if not present.
func CrawlRunFromContext(ctx context.Context) string {
	if v := ctx.Value(crawlRunKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithSource adds a source name to the context.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey, source)
}

// SourceFromContext retrieves the source name from context.
// Returns empty string if not present.
func SourceFromContext(ctx context.Context) string {
	if v := ctx.Value(sourceKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// CrawlContext contains the identifying fields of a crawl in flight.
type CrawlContext struct {
	RequestID  string
	CrawlRunID string
	Source     string
}

// WithCrawlContextFull adds all crawl context to the context.
func WithCrawlContextFull(ctx context.Context, cc CrawlContext) context.Context {
	if cc.RequestID != "" {
		ctx = WithRequestID(ctx, cc.RequestID)
	}
	if cc.CrawlRunID != "" {
		ctx = WithCrawlRun(ctx, cc.CrawlRunID)
	}
	if cc.Source != "" {
		ctx = WithSource(ctx, cc.Source)
	}
	return ctx
}

// CrawlContextFromContext extracts all crawl context from the context.
func CrawlContextFromContext(ctx context.Context) CrawlContext {
	return CrawlContext{
		RequestID:  RequestIDFromContext(ctx),
		CrawlRunID: CrawlRunFromContext(ctx),
		Source:     SourceFromContext(ctx),
	}
}
