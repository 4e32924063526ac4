package provider

import (
	"context"

	"TrendCast/internal/domain/models"
	domrepo "TrendCast/internal/domain/repository"
	applogger "TrendCast/pkg/logger"
)

// Fetcher is the remote half of the adapter. Satisfied by *Client.
type Fetcher interface {
	Daily(ctx context.Context, instrument string) (models.Series, error)
}

// Adapter composes the remote client with the synthetic fallback. With the
// fallback enabled, any fetch failure substitutes a synthetic series of
// matching shape; disabled, the typed failure propagates unchanged.
type Adapter struct {
	fetcher     Fetcher
	fallback    *Generator
	useFallback bool
	metrics     domrepo.Metrics
	logger      *applogger.Logger
}

// NewAdapter creates the data acquisition adapter.
func NewAdapter(fetcher Fetcher, fallback *Generator, useFallback bool, metrics domrepo.Metrics, logger *applogger.Logger) *Adapter {
	return &Adapter{
		fetcher:     fetcher,
		fallback:    fallback,
		useFallback: useFallback,
		metrics:     metrics,
		logger:      logger,
	}
}

// Daily returns the instrument's daily series and the source it came from.
func (a *Adapter) Daily(ctx context.Context, instrument string) (models.Series, string, error) {
	series, err := a.fetcher.Daily(ctx, instrument)
	if err == nil {
		return series, models.SourceProvider, nil
	}

	if !a.useFallback {
		return nil, "", err
	}

	if a.logger != nil {
		a.logger.Warn("provider fetch failed, substituting synthetic series",
			applogger.String("instrument", instrument),
			applogger.Error(err),
		)
	}
	if a.metrics != nil {
		a.metrics.RecordFallback(instrument)
	}
	return a.fallback.Series(), models.SourceSynthetic, nil
}

var _ domrepo.QuoteProvider = (*Adapter)(nil)
