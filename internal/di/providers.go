package di

import (
	"context"
	"fmt"
	"time"

	"TradeMirror/internal/domain/repository"
	domsvc "TradeMirror/internal/domain/service"
	internalrepo "TradeMirror/internal/repository"
	"TradeMirror/internal/services/profiles"
	"TradeMirror/internal/usecase"
	pkgcache "TradeMirror/pkg/cache"
	pkgch "TradeMirror/pkg/clickhouse"
	"TradeMirror/pkg/config"
	pkgkafka "TradeMirror/pkg/kafka"
	"TradeMirror/pkg/metrics"
	"TradeMirror/pkg/server"
)

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		"CREATE TABLE IF NOT EXISTS " + db + ".session_trades (" +
			"session_id String, trade_id String, ts DateTime64(3, 'UTC'), asset String, side String, " +
			"qty Nullable(Float64), notional Nullable(Float64), pl Nullable(Float64), entry_price Nullable(Float64)" +
			") ENGINE=MergeTree ORDER BY (session_id, ts)",
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer. Returns nil when the direct
// clickhouse backend is configured and no publish path is needed.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideTradeStore creates ClickHouse session trade storage.
func ProvideTradeStore(chClient *pkgch.Client, cfg *config.Config) repository.TradeStore {
	return internalrepo.NewClickHouseTradeStore(chClient.DB(), cfg.ClickHouse.Database+".session_trades")
}

// ProvideTradePublisher creates the Kafka publisher repository.
func ProvideTradePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaTradePublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML. The
// consumer only runs with the kafka backend, where it lands published trades
// into ClickHouse.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaTradesHandler registers the handler for the trades topic.
func ProvideKafkaTradesHandler(store repository.TradeStore, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaTradesHandler {
	return usecase.NewKafkaTradesHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideProfileSource builds the reference-profile source: remote service
// with built-in fallback, fronted by a cache. With Redis configured the cache
// is layered (L1 memory, L2 Redis); otherwise memory only.
func ProvideProfileSource(cfg *config.Config) domsvc.ProfileSource {
	src := profiles.NewHTTPSource(cfg)

	var c pkgcache.Service
	r := cfg.Analysis.Redis
	if r.Enabled && r.Host != "" {
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(r.Host),
			pkgcache.WithRedisPort(r.Port),
			pkgcache.WithRedisPassword(r.Password),
			pkgcache.WithRedisDB(r.DB),
		)
		if err == nil {
			c = pkgcache.NewLayeredCache(rc, pkgcache.WithLayeredMemorySize(64))
		}
	}
	if c == nil {
		c = pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(64))
	}
	return profiles.NewCachedSource(src, c, 5*time.Minute)
}

// ProvideBehaviorAnalyzer creates the analysis use case.
func ProvideBehaviorAnalyzer(src domsvc.ProfileSource, metrics repository.Metrics) *usecase.BehaviorAnalyzer {
	return usecase.NewBehaviorAnalyzer(src, metrics)
}

// ProvideTradeIngestor creates the trade ingest use case.
func ProvideTradeIngestor(
	pub repository.Publisher,
	store repository.TradeStore,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.TradeIngestor {
	return usecase.NewTradeIngestor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	analyzer *usecase.BehaviorAnalyzer,
	ingestor *usecase.TradeIngestor,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaTradesHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	return server.New(cfg, analyzer, ingestor, consumer, kh, producer, chClient)
}
