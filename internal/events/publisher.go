// Package events publishes crawl lifecycle events to Kafka so downstream
// services learn when the citation graph has new papers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/citegraph/citation-graph-service/internal/config"
	"github.com/citegraph/citation-graph-service/internal/domain"
)

// Event types published to the crawl topic.
const (
	EventTypeCrawlCompleted = "crawl.completed"
	EventTypeCrawlFailed    = "crawl.failed"
)

// CrawlEvent is the wire payload for a finished crawl run.
type CrawlEvent struct {
	EventType      string              `json:"event_type"`
	RunID          string              `json:"run_id"`
	Query          string              `json:"query"`
	Sources        []domain.SourceType `json:"sources"`
	Status         domain.CrawlStatus  `json:"status"`
	PapersFound    int                 `json:"papers_found"`
	PapersSaved    int                 `json:"papers_saved"`
	PapersUpdated  int                 `json:"papers_updated"`
	CitationsAdded int                 `json:"citations_added"`
	Error          string              `json:"error,omitempty"`
	FinishedAt     *time.Time          `json:"finished_at,omitempty"`
}

// messageWriter is the kafka.Writer surface the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher sends crawl events to Kafka. A disabled publisher is a no-op, so
// callers never need to branch on configuration.
type Publisher struct {
	writer  messageWriter
	enabled bool
	logger  zerolog.Logger
}

// NewPublisher creates a Kafka publisher from configuration.
func NewPublisher(cfg config.KafkaConfig, logger zerolog.Logger) *Publisher {
	p := &Publisher{
		enabled: cfg.Enabled,
		logger:  logger.With().Str("component", "events").Logger(),
	}
	if !cfg.Enabled {
		return p
	}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout == 0 {
		batchTimeout = time.Second
	}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: batchTimeout,
		RequiredAcks: kafka.RequireOne,
	}
	return p
}

// PublishCrawlFinished emits a crawl.completed or crawl.failed event for a
// terminal run. Publishing is best-effort from the caller's point of view, but
// the error is returned so it can be logged with run context.
func (p *Publisher) PublishCrawlFinished(ctx context.Context, run *domain.CrawlRun) error {
	if !p.enabled || run == nil {
		return nil
	}

	eventType := EventTypeCrawlCompleted
	if run.Status == domain.CrawlStatusFailed {
		eventType = EventTypeCrawlFailed
	}

	event := CrawlEvent{
		EventType:      eventType,
		RunID:          run.ID.String(),
		Query:          run.Query,
		Sources:        run.Sources,
		Status:         run.Status,
		PapersFound:    run.PapersFound,
		PapersSaved:    run.PapersSaved,
		PapersUpdated:  run.PapersUpdated,
		CitationsAdded: run.CitationsAdded,
		Error:          run.Error,
		FinishedAt:     run.FinishedAt,
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal crawl event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(run.ID.String()),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to publish crawl event: %w", err)
	}

	p.logger.Debug().
		Str("event_type", eventType).
		Str("run_id", run.ID.String()).
		Msg("published crawl event")
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
