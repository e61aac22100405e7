package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"TradeMirror/internal/domain/models"
	domrepo "TradeMirror/internal/domain/repository"
	pkgkafka "TradeMirror/pkg/kafka"
)

// KafkaTradesHandler consumes trade envelopes from Kafka and writes them to
// storage. This closes the loop for the kafka backend: uploads are published
// to the topic and this handler lands them in ClickHouse.
type KafkaTradesHandler struct {
	topic   string
	storage domrepo.TradeStore
	metrics domrepo.Metrics
}

func NewKafkaTradesHandler(topic string, storage domrepo.TradeStore, metrics domrepo.Metrics) *KafkaTradesHandler {
	return &KafkaTradesHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaTradesHandler) Topic() string { return h.topic }

// incoming message schema: {sessionId, trade}
func (h *KafkaTradesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		SessionID string       `json:"sessionId"`
		Trade     models.Trade `json:"trade"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.SessionID == "" {
		h.metrics.RecordError("consumer_no_session")
		return fmt.Errorf("trade envelope missing sessionId")
	}
	if !m.Trade.HasTS() {
		// unusable for analysis, drop without retry
		h.metrics.RecordError("consumer_no_ts")
		return nil
	}

	start := time.Now()
	err := h.storage.Store(ctx, m.SessionID, &m.Trade)
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordTradesIngested("clickhouse", 1)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaTradesHandler)(nil)
