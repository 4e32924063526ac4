package usecase

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	applogger "TrendCast/pkg/logger"
)

// Warmup periodically runs predictions for a fixed instrument list so the
// cache stays hot and slow model or provider paths are paid off-request.
type Warmup struct {
	cron        *cron.Cron
	predictor   *Predictor
	instruments []string
	schedule    string
	timeout     time.Duration
	logger      *applogger.Logger
}

// NewWarmup creates the scheduler. It does nothing until Start is called.
func NewWarmup(predictor *Predictor, instruments []string, schedule string, logger *applogger.Logger) *Warmup {
	return &Warmup{
		cron:        cron.New(),
		predictor:   predictor,
		instruments: instruments,
		schedule:    schedule,
		timeout:     time.Minute,
		logger:      logger,
	}
}

// Start registers the job and begins the schedule. One immediate pass runs
// in the background so the cache is warm before the first tick.
func (w *Warmup) Start() error {
	if _, err := w.cron.AddFunc(w.schedule, w.run); err != nil {
		return err
	}
	w.cron.Start()
	go w.run()
	return nil
}

// Stop halts the schedule and waits for an in-flight pass to finish.
func (w *Warmup) Stop() {
	<-w.cron.Stop().Done()
}

func (w *Warmup) run() {
	for _, instrument := range w.instruments {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		if _, err := w.predictor.Predict(ctx, instrument); err != nil {
			w.logger.Warn("warmup prediction failed",
				applogger.String("instrument", instrument),
				applogger.Error(err),
			)
		}
		cancel()
	}
}
