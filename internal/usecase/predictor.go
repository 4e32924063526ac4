package usecase

import (
	"context"
	"encoding/json"
	"time"

	"TrendCast/internal/domain/models"
	domrepo "TrendCast/internal/domain/repository"
	domsvc "TrendCast/internal/domain/service"
	"TrendCast/internal/service/cache"
	"TrendCast/internal/services/features"
	applogger "TrendCast/pkg/logger"
)

// Pipeline stage labels used for metrics and logging.
const (
	StageFetch     = "fetch"
	StageSequence  = "sequence"
	StageInference = "inference"
	StageRecord    = "record"
)

// Predictor runs the prediction pipeline for one instrument: acquire the
// daily series, build the feature window, run the model, assemble the
// result. Requests are independent; the only shared state is the read-only
// model and the optional cache.
type Predictor struct {
	provider  domrepo.QuoteProvider
	model     domsvc.Forecaster
	recorder  domrepo.Recorder
	metrics   domrepo.Metrics
	cache     cache.BytesCache
	cacheTTL  time.Duration
	logger    *applogger.Logger
	seqLen    int
	inputSize int
	now       func() time.Time
}

// PredictorOption configures the predictor.
type PredictorOption func(*Predictor)

// WithCache enables response caching per instrument.
func WithCache(c cache.BytesCache, ttl time.Duration) PredictorOption {
	return func(p *Predictor) {
		p.cache = c
		p.cacheTTL = ttl
	}
}

// WithPredictorClock overrides the time source. Used by tests.
func WithPredictorClock(now func() time.Time) PredictorOption {
	return func(p *Predictor) { p.now = now }
}

// NewPredictor creates the prediction orchestrator.
func NewPredictor(
	provider domrepo.QuoteProvider,
	model domsvc.Forecaster,
	recorder domrepo.Recorder,
	metrics domrepo.Metrics,
	logger *applogger.Logger,
	seqLen, inputSize int,
	opts ...PredictorOption,
) *Predictor {
	p := &Predictor{
		provider:  provider,
		model:     model,
		recorder:  recorder,
		metrics:   metrics,
		logger:    logger,
		seqLen:    seqLen,
		inputSize: inputSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Predict runs the full pipeline. Typed stage errors propagate unchanged so
// the transport layer can map them to stable caller-visible kinds. All-or-
// nothing: no partial result is ever returned.
func (p *Predictor) Predict(ctx context.Context, instrument string) (*models.Prediction, error) {
	if cached := p.cacheGet(instrument); cached != nil {
		return cached, nil
	}

	series, source, err := p.timed(StageFetch, func() (models.Series, string, error) {
		return p.provider.Daily(ctx, instrument)
	})
	if err != nil {
		p.fail(StageFetch, instrument, err)
		return nil, err
	}

	seqStart := p.now()
	seq, err := features.BuildSequence(series, p.seqLen, p.inputSize)
	p.metrics.RecordLatency(StageSequence, p.now().Sub(seqStart).Seconds())
	if err != nil {
		p.fail(StageSequence, instrument, err)
		return nil, err
	}

	infStart := p.now()
	probs, err := p.model.Infer(ctx, seq)
	p.metrics.RecordLatency(StageInference, p.now().Sub(infStart).Seconds())
	if err != nil {
		p.fail(StageInference, instrument, err)
		return nil, err
	}

	outcomes := p.model.Outcomes()
	best := argmax(probs)
	pred := &models.Prediction{
		Instrument:    instrument,
		Timestamp:     p.now().UTC(),
		Outcomes:      outcomes,
		Probabilities: probs,
		Best:          outcomes[best],
		Confidence:    probs[best],
		Source:        source,
	}

	p.metrics.RecordPrediction(instrument, pred.Best, source)
	p.record(ctx, pred)
	p.cacheSet(instrument, pred)

	p.logger.Info("prediction served",
		applogger.String("instrument", instrument),
		applogger.String("best", pred.Best),
		applogger.Float64("confidence", pred.Confidence),
		applogger.String("source", source),
	)
	return pred, nil
}

// record persists the prediction best-effort; a recorder failure is logged
// and counted but never fails the request.
func (p *Predictor) record(ctx context.Context, pred *models.Prediction) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Record(ctx, pred); err != nil {
		p.metrics.RecordError(StageRecord)
		p.logger.Warn("prediction record failed",
			applogger.String("instrument", pred.Instrument),
			applogger.Error(err),
		)
	}
}

func (p *Predictor) fail(stage, instrument string, err error) {
	p.metrics.RecordError(stage)
	p.logger.Error("prediction pipeline failed",
		applogger.String("stage", stage),
		applogger.String("instrument", instrument),
		applogger.Error(err),
	)
}

func (p *Predictor) timed(stage string, fn func() (models.Series, string, error)) (models.Series, string, error) {
	start := p.now()
	series, source, err := fn()
	p.metrics.RecordLatency(stage, p.now().Sub(start).Seconds())
	return series, source, err
}

func (p *Predictor) cacheGet(instrument string) *models.Prediction {
	if p.cache == nil {
		return nil
	}
	b, ok, err := p.cache.GetBytes(cacheKey(instrument))
	if err != nil || !ok {
		return nil
	}
	var pred models.Prediction
	if err := json.Unmarshal(b, &pred); err != nil {
		return nil
	}
	return &pred
}

func (p *Predictor) cacheSet(instrument string, pred *models.Prediction) {
	if p.cache == nil {
		return
	}
	b, err := json.Marshal(pred)
	if err != nil {
		return
	}
	if err := p.cache.SetBytes(cacheKey(instrument), b, p.cacheTTL); err != nil {
		p.logger.Warn("prediction cache set failed",
			applogger.String("instrument", pred.Instrument),
			applogger.Error(err),
		)
	}
}

func cacheKey(instrument string) string {
	return "predict:" + instrument
}

func argmax(xs []float64) int {
	best := 0
	for i, v := range xs {
		if v > xs[best] {
			best = i
		}
	}
	return best
}
