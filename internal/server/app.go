// Package server runs the cargotrack daemon: a periodic sync loop, the gRPC
// read and trigger API, and the Prometheus metrics endpoint.
package server

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/cargotrack/internal/bootstrap"
	"github.com/dmitrijs2005/cargotrack/internal/config"
	"github.com/dmitrijs2005/cargotrack/internal/logging"
	"github.com/dmitrijs2005/cargotrack/internal/metrics"

	gs "github.com/dmitrijs2005/cargotrack/internal/server/grpc"
)

const syncJitterRatio = 0.2

type App struct {
	config *config.Config
	logger logging.Logger
	engine *bootstrap.Engine

	// sample returns a value in [0, 1) used to spread sync cycles.
	sample func() float64
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogLevel, "json")

	e, err := bootstrap.Build(ctx, c, logger, bootstrap.Options{
		Prompt:       devicePrompt(logger),
		ExportOnSync: true,
	})
	if err != nil {
		return nil, err
	}
	return newApp(c, logger, e), nil
}

func newApp(c *config.Config, logger logging.Logger, e *bootstrap.Engine) *App {
	return &App{config: c, logger: logger.With("module", "server"), engine: e, sample: rand.Float64}
}

// devicePrompt logs the device-code instructions. Unattended daemons should
// use client credentials instead.
func devicePrompt(logger logging.Logger) func(ctx context.Context, uri, code string) error {
	return func(ctx context.Context, uri, code string) error {
		logger.Warn(ctx, "device login required", "verification_uri", uri, "user_code", code)
		return nil
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.engine, app.config.GRPCAPIToken)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if app.config.MetricsAddr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(app.engine.Registry))
	srv := &http.Server{Addr: app.config.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting metrics server", "address", app.config.MetricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "metrics server failed", "error", err)
		cancelFunc()
	}
}

// runSyncLoop syncs at the configured interval, spread by up to 20% either
// way, until ctx is done. Failures are logged and retried next cycle.
func (app *App) runSyncLoop(ctx context.Context) {
	for {
		delay := jitteredIntervalWithSample(app.config.SyncInterval, syncJitterRatio, app.sample())
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		_ = app.engine.Sync(ctx)
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.engine.Close()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.engine.Tracker.Start(ctx); err != nil {
		app.logger.Error(ctx, "initial sync failed", "error", err)
	}

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startMetricsServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.runSyncLoop(ctx)
	}()

	wg.Wait()
	app.logger.Info(ctx, "Stopped")
}

func jitteredIntervalWithSample(base time.Duration, jitterRatio, sample float64) time.Duration {
	if base <= 0 {
		return 0
	}
	jitterRatio = min(max(jitterRatio, 0), 1)
	if jitterRatio == 0 {
		return base
	}
	sample = min(max(sample, 0), 1)
	factor := max(1+((sample*2)-1)*jitterRatio, 0)
	delay := time.Duration(float64(base) * factor)
	if delay < time.Millisecond {
		return time.Millisecond
	}
	return delay
}
