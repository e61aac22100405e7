//go:build wireinject
// +build wireinject

package di

import (
	"TradeMirror/pkg/config"
	"TradeMirror/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Metrics
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories (with business logic)
		ProvideTradeStore,
		ProvideTradePublisher,
		ProvideProfileSource,

		// Use cases
		ProvideBehaviorAnalyzer,
		ProvideTradeIngestor,
		ProvideKafkaTradesHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
