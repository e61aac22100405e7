package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"TradeMirror/internal/domain/models"
	"TradeMirror/internal/domain/repository"
	pkgkafka "TradeMirror/pkg/kafka"
)

// ClickHouseTradeStore implements TradeStore for ClickHouse.
type ClickHouseTradeStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseTradeStore creates ClickHouse trade storage.
func NewClickHouseTradeStore(db *sql.DB, table string) repository.TradeStore {
	return &ClickHouseTradeStore{db: db, table: table}
}

func (s *ClickHouseTradeStore) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseTradeStore) Store(ctx context.Context, sessionID string, t *models.Trade) error {
	q := fmt.Sprintf("INSERT INTO %s (session_id, trade_id, ts, asset, side, qty, notional, pl, entry_price) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q, tradeArgs(sessionID, t)...)
	return err
}

func (s *ClickHouseTradeStore) StoreBatch(ctx context.Context, sessionID string, trades []models.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	// Multi-row VALUES insert, chunked to bound statement size.
	const chunkSize = 2000
	for start := 0; start < len(trades); start += chunkSize {
		end := start + chunkSize
		if end > len(trades) {
			end = len(trades)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*9)
		for i := range trades[start:end] {
			t := &trades[start+i]
			if !t.HasTS() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, tradeArgs(sessionID, t)...)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (session_id, trade_id, ts, asset, side, qty, notional, pl, entry_price) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseTradeStore) BySession(ctx context.Context, sessionID string, limit int) ([]models.Trade, error) {
	q := fmt.Sprintf("SELECT trade_id, ts, asset, side, qty, notional, pl, entry_price FROM %s WHERE session_id = ? ORDER BY ts ASC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		var ts time.Time
		var qty, notional, pl, entry sql.NullFloat64
		if err := rows.Scan(&t.TradeID, &ts, &t.Asset, &t.Side, &qty, &notional, &pl, &entry); err != nil {
			return nil, err
		}
		t.TS = ts.UTC()
		t.Qty = nullToPtr(qty)
		t.Notional = nullToPtr(notional)
		t.PL = nullToPtr(pl)
		t.EntryPrice = nullToPtr(entry)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func (s *ClickHouseTradeStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseTradeStore) Close() error {
	return nil // Managed by pkg
}

func tradeArgs(sessionID string, t *models.Trade) []interface{} {
	return []interface{}{
		sessionID,
		t.TradeID,
		t.TS.UTC(),
		t.Asset,
		string(t.Side),
		ptrToNull(t.Qty),
		ptrToNull(t.Notional),
		ptrToNull(t.PL),
		ptrToNull(t.EntryPrice),
	}
}

func ptrToNull(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func nullToPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// KafkaTradePublisher implements Publisher for Kafka.
type KafkaTradePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaTradePublisher creates Kafka trade publisher.
func NewKafkaTradePublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaTradePublisher{producer: producer, topic: topic}
}

// envelope is the wire format on the trades topic. Keyed by session so a
// session's trades land on one partition and stay ordered.
type envelope struct {
	SessionID string       `json:"sessionId"`
	Trade     models.Trade `json:"trade"`
}

func (p *KafkaTradePublisher) Publish(ctx context.Context, sessionID string, t *models.Trade) error {
	return p.producer.Publish(ctx, p.topic, []byte(sessionID), envelope{SessionID: sessionID, Trade: *t})
}

func (p *KafkaTradePublisher) PublishBatch(ctx context.Context, sessionID string, trades []models.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(trades))
	for i, t := range trades {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(sessionID),
			Value: envelope{SessionID: sessionID, Trade: t},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaTradePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
