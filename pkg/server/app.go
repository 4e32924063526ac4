package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	domrepo "TrendCast/internal/domain/repository"
	icache "TrendCast/internal/service/cache"
	"TrendCast/internal/usecase"
	"TrendCast/pkg/config"
	xhttp "TrendCast/pkg/http"
	applogger "TrendCast/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	handler    xhttp.Handler
	warmup     *usecase.Warmup
	recorder   domrepo.Recorder
	cache      icache.BytesCache
	logger     *applogger.Logger
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	handler xhttp.Handler,
	warmup *usecase.Warmup,
	recorder domrepo.Recorder,
	cache icache.BytesCache,
	logger *applogger.Logger,
) *App {
	return &App{
		cfg:      cfg,
		handler:  handler,
		warmup:   warmup,
		recorder: recorder,
		cache:    cache,
		logger:   logger,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	if a.warmup != nil {
		if err := a.warmup.Start(); err != nil {
			a.logger.Error("warmup scheduler start error", applogger.Error(err))
			return err
		}
		a.logger.Info("warmup scheduler started",
			applogger.String("schedule", a.cfg.Warmup.Schedule),
			applogger.Strings("instruments", a.cfg.Instruments),
		)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	if a.warmup != nil {
		a.warmup.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.recorder != nil {
		if err := a.recorder.Close(); err != nil {
			a.logger.Warn("recorder close error", applogger.Error(err))
		}
	}
	if closer, ok := a.cache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.logger.Warn("cache close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
