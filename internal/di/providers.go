package di

import (
	"context"
	"fmt"
	"time"

	"TrendCast/internal/domain/repository"
	domsvc "TrendCast/internal/domain/service"
	"TrendCast/internal/handler/api"
	internalrepo "TrendCast/internal/repository"
	"TrendCast/internal/service/auth"
	icache "TrendCast/internal/service/cache"
	"TrendCast/internal/service/provider"
	"TrendCast/internal/services/forecast"
	"TrendCast/internal/usecase"
	pkgch "TrendCast/pkg/clickhouse"
	"TrendCast/pkg/config"
	xhttp "TrendCast/pkg/http"
	pkgkafka "TrendCast/pkg/kafka"
	applogger "TrendCast/pkg/logger"
	"TrendCast/pkg/metrics"
	"TrendCast/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideAuthority creates the token issuing and validation service.
func ProvideAuthority(cfg *config.Config) domsvc.Authority {
	return auth.New(cfg.Auth.Users, cfg.Auth.Secret, cfg.Auth.TokenTTL)
}

// ProvideQuoteProvider composes the remote quote client with the synthetic
// fallback generator.
func ProvideQuoteProvider(cfg *config.Config, m repository.Metrics, l *applogger.Logger) repository.QuoteProvider {
	client := provider.NewClient(cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Provider.Timeout)
	gen := provider.NewGenerator(cfg.Provider.FallbackSeed)
	return provider.NewAdapter(client, gen, cfg.Provider.UseFallback, m, l)
}

// ProvideForecaster loads the sequence model artifact from disk.
func ProvideForecaster(cfg *config.Config) (domsvc.Forecaster, error) {
	model, err := forecast.Load(cfg.Model.Path, forecast.Architecture{
		InputSize:  cfg.Model.InputSize,
		HiddenSize: cfg.Model.HiddenSize,
		OutputSize: cfg.Model.OutputSize,
		LSTMLayers: cfg.Model.LSTMLayers,
		Dropout:    cfg.Model.Dropout,
	}, cfg.Model.Workers)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return model, nil
}

// ProvideCache creates the prediction cache for the configured backend. A
// nil cache disables caching.
func ProvideCache(cfg *config.Config) icache.BytesCache {
	switch cfg.Cache.Type {
	case "memory":
		return icache.NewTTLCache()
	case "redis":
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	default:
		return nil
	}
}

// chRecorder ties the ClickHouse recorder to its client so closing the
// recorder releases the connection pool.
type chRecorder struct {
	*internalrepo.ClickHouseRecorder
	client *pkgch.Client
}

func (r *chRecorder) Close() error { return r.client.Close() }

// ProvideRecorder creates the prediction sink for the configured backend.
func ProvideRecorder(cfg *config.Config) (repository.Recorder, error) {
	switch cfg.Recorder.Type {
	case "kafka":
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Recorder.Kafka.Brokers),
			pkgkafka.WithRequiredAcks(cfg.Recorder.Kafka.RequiredAcks),
			pkgkafka.WithCompression(cfg.Recorder.Kafka.Compression),
			pkgkafka.WithMaxAttempts(cfg.Recorder.Kafka.MaxAttempts),
			pkgkafka.WithTimeouts(cfg.Recorder.Kafka.WriteTimeout, cfg.Recorder.Kafka.ReadTimeout),
			pkgkafka.WithHashByKey(true),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		return internalrepo.NewKafkaRecorder(producer, cfg.Recorder.Kafka.Topic), nil

	case "clickhouse":
		ch := cfg.Recorder.ClickHouse
		client, err := pkgch.NewClient(
			pkgch.WithHost(ch.Host),
			pkgch.WithPort(ch.Port),
			pkgch.WithDatabase(ch.Database),
			pkgch.WithCredentials(ch.User, ch.Password),
			pkgch.WithHTTP(ch.UseHTTP),
			pkgch.WithAsyncInsert(ch.AsyncInsert, ch.WaitForAsync),
			pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout, ch.WriteTimeout),
			pkgch.WithMaxConnections(10, 5),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.InitSchema(ctx, internalrepo.PredictionsSchema); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		return &chRecorder{
			ClickHouseRecorder: internalrepo.NewClickHouseRecorder(client.DB(), "trendcast.predictions"),
			client:             client,
		}, nil

	default:
		return internalrepo.NewNoopRecorder(), nil
	}
}

// ProvidePredictor creates the prediction orchestrator.
func ProvidePredictor(
	cfg *config.Config,
	qp repository.QuoteProvider,
	model domsvc.Forecaster,
	rec repository.Recorder,
	m repository.Metrics,
	l *applogger.Logger,
	c icache.BytesCache,
) *usecase.Predictor {
	opts := []usecase.PredictorOption{}
	if c != nil {
		opts = append(opts, usecase.WithCache(c, cfg.Cache.TTL))
	}
	return usecase.NewPredictor(qp, model, rec, m, l,
		cfg.Model.SequenceLength, cfg.Model.InputSize, opts...)
}

// ProvideWarmup creates the cache warm-up scheduler, or nil when disabled.
func ProvideWarmup(cfg *config.Config, p *usecase.Predictor, l *applogger.Logger) *usecase.Warmup {
	if !cfg.Warmup.Enabled || len(cfg.Instruments) == 0 {
		return nil
	}
	return usecase.NewWarmup(p, cfg.Instruments, cfg.Warmup.Schedule, l)
}

// ProvideHandler creates the HTTP handler surface.
func ProvideHandler(
	authority domsvc.Authority,
	p *usecase.Predictor,
	m repository.Metrics,
	l *applogger.Logger,
) xhttp.Handler {
	return api.NewPredictionsHandler(authority, p, m, l)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	handler xhttp.Handler,
	warmup *usecase.Warmup,
	rec repository.Recorder,
	c icache.BytesCache,
	l *applogger.Logger,
) *server.App {
	return server.New(cfg, handler, warmup, rec, c, l)
}
