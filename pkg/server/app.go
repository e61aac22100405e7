package server

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TradeMirror/internal/handler/api"
	icache "TradeMirror/internal/service/cache"
	"TradeMirror/internal/usecase"
	pkgch "TradeMirror/pkg/clickhouse"
	"TradeMirror/pkg/config"
	xhttp "TradeMirror/pkg/http"
	pkgkafka "TradeMirror/pkg/kafka"
	applogger "TradeMirror/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	analyzer    *usecase.BehaviorAnalyzer
	ingestor    *usecase.TradeIngestor
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	producer    *pkgkafka.Producer
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	analyzer *usecase.BehaviorAnalyzer,
	ingestor *usecase.TradeIngestor,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:      cfg,
		analyzer: analyzer,
		ingestor: ingestor,
		consumer: consumer,
		kh:       kh,
		producer: producer,
		chClient: chClient,
	}
}

// logPublisher adapts the Kafka producer to the log collector's publish
// interface.
type logPublisher struct {
	p *pkgkafka.Producer
}

func (lp logPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return lp.p.Publish(ctx, topic, nil, payload)
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// init app logger (console info by default)
	lcfg := &applogger.Config{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		Output: a.cfg.Logging.Output,
	}
	if lcfg.Level == "" {
		lcfg.Level = "info"
	}
	if lcfg.Format == "" {
		lcfg.Format = "console"
	}
	if lcfg.Output == "" {
		lcfg.Output = "stdout"
	}
	l, err := applogger.New(lcfg)
	if err != nil {
		return err
	}

	// Aggregated error-log shipping over the ingest producer, when configured
	if col := a.cfg.Logging.Collection; col.Enabled {
		if a.producer == nil {
			l.Warn("log collection enabled but no kafka producer, skipping")
		} else {
			interval := col.FlushInterval
			if interval <= 0 {
				interval = 30 * time.Second
			}
			threshold := col.CountThreshold
			if threshold <= 0 {
				threshold = 100
			}
			topic := col.Topic
			if topic == "" {
				topic = "service_logs"
			}
			l.AddCollector(&applogger.CollectionConfig{
				TimeInterval:   interval,
				CountThreshold: threshold,
				Topic:          topic,
				Publisher:      logPublisher{p: a.producer},
			})
			defer l.RemoveCollector()
		}
	}

	// Setup Echo HTTP server using pkg/http and register routes via handler
	var httpHandler xhttp.Handler
	if a.httpHandler != nil {
		httpHandler = a.httpHandler
	} else {
		bh := api.NewBehaviorEchoHandler(l, a.analyzer, a.ingestor)
		bh.SetLimits(a.cfg.Analysis.ReportTTL, a.cfg.Analysis.FallbackTTL, a.cfg.Analysis.SessionLimit, a.cfg.Analysis.UploadMaxRPS, a.cfg.Analysis.UploadBurst)
		bh.SetCache(a.reportCache())
		httpHandler = bh
	}

	a.httpServer = xhttp.NewServer(httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("behavior service started", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// reportCache picks Redis when configured, in-process TTL map otherwise.
func (a *App) reportCache() icache.BytesCache {
	r := a.cfg.Analysis.Redis
	if r.Enabled && r.Host != "" {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     fmt.Sprintf("%s:%d", r.Host, r.Port),
			Password: r.Password,
			DB:       r.DB,
		})
	}
	return icache.NewTTLCache()
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	// best-effort logging via stdout
	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return err
	}
	l.Info("shutting down...")

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close ingest resources (publisher/storage)
	if a.ingestor != nil {
		a.ingestor.Close()
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
