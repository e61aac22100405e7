package repository

import (
	"context"

	"TradeMirror/internal/domain/models"
)

// TradeStore persists canonical trades keyed by analysis session.
type TradeStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, sessionID string, t *models.Trade) error
	StoreBatch(ctx context.Context, sessionID string, trades []models.Trade) error
	BySession(ctx context.Context, sessionID string, limit int) ([]models.Trade, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// Publisher emits normalized trades onto the ingest topic.
type Publisher interface {
	Publish(ctx context.Context, sessionID string, t *models.Trade) error
	PublishBatch(ctx context.Context, sessionID string, trades []models.Trade) error
	Close() error
}

// Metrics records operational counters for the analysis service.
type Metrics interface {
	RecordAnalysis(kind string)
	RecordBiasScore(bias string, score float64)
	RecordTradesIngested(backend string, n int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
