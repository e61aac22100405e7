package usecase

import (
	"context"
	"fmt"
	"time"

	"TradeMirror/internal/domain/models"
	drepo "TradeMirror/internal/domain/repository"
)

// TradeIngestor routes normalized trades to the configured backend. With the
// kafka backend trades flow through the ingest topic and land in storage via
// the consumer; with the clickhouse backend they are written directly.
type TradeIngestor struct {
	pub     drepo.Publisher
	store   drepo.TradeStore
	metrics drepo.Metrics
	backend string
	batchSz int
	batchTO time.Duration
}

// NewTradeIngestor creates a new TradeIngestor instance.
func NewTradeIngestor(
	pub drepo.Publisher,
	store drepo.TradeStore,
	metrics drepo.Metrics,
	backend string,
	batchSz int,
	batchTO time.Duration,
) *TradeIngestor {
	return &TradeIngestor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
		batchSz: batchSz,
		batchTO: batchTO,
	}
}

// Ingest routes a single trade to the configured backend.
func (p *TradeIngestor) Ingest(ctx context.Context, sessionID string, t *models.Trade) error {
	if t == nil {
		return fmt.Errorf("trade is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, sessionID, t)
	case "clickhouse":
		err = p.store.Store(ctx, sessionID, t)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("ingest")
		return fmt.Errorf("ingest trade: %w", err)
	}

	p.metrics.RecordTradesIngested(p.backend, 1)
	p.metrics.RecordLatency("ingest", time.Since(start).Seconds())

	return nil
}

// IngestBatch routes a batch of trades, chunked to the configured batch size.
func (p *TradeIngestor) IngestBatch(ctx context.Context, sessionID string, trades []models.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	start := time.Now()
	size := p.batchSz
	if size <= 0 {
		size = len(trades)
	}

	for lo := 0; lo < len(trades); lo += size {
		hi := lo + size
		if hi > len(trades) {
			hi = len(trades)
		}

		var err error
		switch p.backend {
		case "kafka":
			err = p.pub.PublishBatch(ctx, sessionID, trades[lo:hi])
		case "clickhouse":
			err = p.store.StoreBatch(ctx, sessionID, trades[lo:hi])
		default:
			err = fmt.Errorf("unknown backend: %s", p.backend)
		}
		if err != nil {
			p.metrics.RecordError("ingest_batch")
			return fmt.Errorf("ingest batch: %w", err)
		}
	}

	p.metrics.RecordTradesIngested(p.backend, len(trades))
	p.metrics.RecordLatency("ingest_batch", time.Since(start).Seconds())

	return nil
}

// Trades loads a session's trades from storage in timestamp order.
func (p *TradeIngestor) Trades(ctx context.Context, sessionID string, limit int) ([]models.Trade, error) {
	if p.store == nil {
		return nil, fmt.Errorf("no trade store configured")
	}
	return p.store.BySession(ctx, sessionID, limit)
}

// Close closes underlying resources if available.
func (p *TradeIngestor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
