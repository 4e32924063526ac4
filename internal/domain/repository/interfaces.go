package repository

import (
	"context"

	"TrendCast/internal/domain/models"
)

// QuoteProvider supplies daily series for an instrument. Implementations
// apply their own timeouts; the returned series is sorted by ascending date.
// The source string is models.SourceProvider or models.SourceSynthetic.
type QuoteProvider interface {
	Daily(ctx context.Context, instrument string) (models.Series, string, error)
}

// Recorder persists served predictions for later analysis. Recording is
// best-effort: callers log failures and keep serving.
type Recorder interface {
	Record(ctx context.Context, p *models.Prediction) error
	Close() error
}

// Metrics abstracts pipeline instrumentation.
type Metrics interface {
	RecordPrediction(instrument, outcome, source string)
	RecordFallback(instrument string)
	RecordError(stage string)
	RecordAuth(result string)
	RecordLatency(stage string, seconds float64)
}
