package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/particle-harvester/internal/api"
	"github.com/JakeFAU/particle-harvester/internal/config"
	collyfetcher "github.com/JakeFAU/particle-harvester/internal/fetcher/colly"
	"github.com/JakeFAU/particle-harvester/internal/id/uuid"
	"github.com/JakeFAU/particle-harvester/internal/logging"
	"github.com/JakeFAU/particle-harvester/internal/pipeline"
	"github.com/JakeFAU/particle-harvester/internal/policy/ratelimit"
	"github.com/JakeFAU/particle-harvester/internal/registry"
	"github.com/JakeFAU/particle-harvester/internal/sites/election"
	"github.com/JakeFAU/particle-harvester/internal/telemetry"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	skipSeeds := flag.Bool("no-seed", false, "Start without sending the configured seed requests")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(logging.Options{
		Development: cfg.Logging.Development,
		Level:       cfg.Logging.Level,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	if err := run(cfg, *skipSeeds, logger); err != nil {
		logger.Error("harvester exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, skipSeeds bool, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.InitTracerProvider(ctx, telemetry.Options{
		ServiceName: cfg.Tracing.ServiceName,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, logger.Named("trace"))
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := telemetry.Shutdown(tp, 5*time.Second); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	sink, closeSink, err := openSink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSink()

	reg := registry.New()
	if err := election.Bootstrap(reg, sink, election.WithLogger(logger.Named("election"))); err != nil {
		return err
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:        cfg.HTTP.UserAgent,
		Timeout:          cfg.HTTPTimeout(),
		TransientRetries: cfg.HTTP.TransientRetries,
		Limiter: ratelimit.New(ratelimit.Config{
			RequestsPerSecond: cfg.HTTP.RatePerHost,
			Burst:             cfg.HTTP.Burst,
		}),
	})
	p := pipeline.New(pipeline.Config{
		FetchWorkers: cfg.Pipeline.FetchWorkers,
		ParseWorkers: cfg.Pipeline.ParseWorkers,
		MaxAttempts:  cfg.Pipeline.MaxAttempts,
	}, fetcher, reg, uuid.New(), logger.Named("pipeline"))

	// The pipeline outlives the signal context so Shutdown can drain it.
	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		p.Run(runCtx)
	}()

	if !skipSeeds {
		seeds, err := election.Seeds(election.SeedPlan{
			BBCPages:      cfg.Seeds.BBCPages,
			GuardianPages: cfg.Seeds.GuardianPages,
			HuffPostPages: cfg.Seeds.HuffPostPages,
			SearchSites:   cfg.Seeds.SearchSites,
			People:        cfg.Seeds.People,
			Topics:        cfg.Seeds.Topics,
		})
		if err != nil {
			return err
		}
		for _, req := range seeds {
			if err := p.Send(req); err != nil {
				logger.Warn("seed rejected", zap.String("url", req.URL), zap.Error(err))
			}
		}
		logger.Info("seeds sent", zap.Int("count", len(seeds)))
	}

	apiServer := api.NewServer(p, reg, api.Options{APIKey: cfg.Server.APIKey}, logger)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated", zap.Duration("drain_timeout", cfg.ShutdownTimeout()))

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancelDrain()
	if err := p.Shutdown(drainCtx); err != nil {
		logger.Warn("pipeline drain incomplete", zap.Error(err), zap.Any("stats", p.Stats()))
	}
	<-runDone

	srvCtx, cancelSrv := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelSrv()
	if err := srv.Shutdown(srvCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete", zap.Any("stats", p.Stats()))
	return nil
}
