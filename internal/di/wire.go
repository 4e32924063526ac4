//go:build wireinject
// +build wireinject

package di

import (
	"TrendCast/pkg/config"
	"TrendCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Domain services
		ProvideAuthority,
		ProvideQuoteProvider,
		ProvideForecaster,

		// Infrastructure
		ProvideCache,
		ProvideRecorder,

		// Use cases
		ProvidePredictor,
		ProvideWarmup,

		// Transport and application server
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
