package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"bess-dispatch/internal/api"
	"bess-dispatch/internal/backtest"
	"bess-dispatch/internal/config"
	"bess-dispatch/internal/logger"
	"bess-dispatch/internal/metrics"
	"bess-dispatch/internal/store"
)

// purgeInterval is how often a persistent store drops expired results.
const purgeInterval = 5 * time.Minute

func main() {
	cfgPath := flag.String("config", os.Getenv("BESS_CONFIG"), "Path to YAML or JSON config (optional)")
	flag.Parse()

	log := logger.New("api")
	if err := run(*cfgPath, log); err != nil {
		log.Errorf("api: %v", err)
		os.Exit(1)
	}
}

func run(cfgPath string, log logger.Logger) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Resolve the battery directory up front so the log shows where presets come from
	batteryDir := cfg.Server.BatteryDir
	if abs, err := filepath.Abs(batteryDir); err == nil {
		batteryDir = abs
	}
	if info, err := os.Stat(batteryDir); err == nil && info.IsDir() {
		log.Infof("battery directory found: %s", batteryDir)
	} else {
		log.Warnf("battery directory not found at: %s (error: %v)", batteryDir, err)
	}

	sink, err := metrics.NewPromSink(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	st, err := store.Open(cfg.Store.Backend, cfg.Store.Path, cfg.Store.TTL)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Errorf("store close: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if p, ok := st.(store.Purger); ok && cfg.Store.TTL > 0 {
		go store.PurgeLoop(ctx, p, purgeInterval, log)
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Deps{
		Engine:      backtest.New(backtest.WithLogger(logger.New("engine")), backtest.WithMetrics(sink)),
		Store:       st,
		Log:         log,
		BatteryDir:  batteryDir,
		Workers:     cfg.Simulation.Workers,
		MaxBodySize: cfg.Server.MaxBodySize,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("starting API server on %s (store: %s)", srv.Addr, cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
