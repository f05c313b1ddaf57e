package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/healthtrack/internal/api"
	"github.com/inferloop/healthtrack/internal/config"
	"github.com/inferloop/healthtrack/internal/insights"
	"github.com/inferloop/healthtrack/internal/observability/metrics"
	"github.com/inferloop/healthtrack/internal/server"
	"github.com/inferloop/healthtrack/internal/storage"
	"github.com/inferloop/healthtrack/pkg/constants"
	"github.com/inferloop/healthtrack/pkg/interfaces"
)

func main() {
	flags := ParseFlags()
	if flags.Version {
		printVersion()
		return
	}

	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	flags.Apply(cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log.Level, cfg.Log.Format)

	logger.WithFields(logrus.Fields{
		"version":     appVersion(),
		"commit":      GitCommit,
		"buildDate":   BuildDate,
		"environment": cfg.Environment,
	}).Info("Starting health insights server")

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("Server exited with error")
	}

	logger.Info("Server stopped")
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var pm *metrics.PrometheusMetrics
	if cfg.Metrics.Enabled {
		var err error
		pm, err = metrics.NewPrometheusMetrics(&cfg.Metrics, logger)
		if err != nil {
			return err
		}
	}

	factory := storage.NewFactory(logger)

	store, err := factory.CreateRecordStore(&cfg.Storage)
	if err != nil {
		return err
	}

	connectCtx, cancel := context.WithTimeout(ctx, constants.DefaultConnectionTimeout)
	err = store.Connect(connectCtx)
	cancel()
	if err != nil {
		return err
	}
	defer store.Close()

	dependencies := map[string]interfaces.Storage{"records": store}

	artifacts, err := factory.CreateArtifactStore(&cfg.Artifacts)
	if err != nil {
		return err
	}
	if lifecycle, ok := artifacts.(interfaces.Storage); ok {
		connectCtx, cancel := context.WithTimeout(ctx, constants.DefaultConnectionTimeout)
		err = lifecycle.Connect(connectCtx)
		cancel()
		if err != nil {
			return err
		}
		defer lifecycle.Close()
		dependencies["artifacts"] = lifecycle
	}

	records := store
	var opts []insights.Option
	if artifacts != nil {
		opts = append(opts, insights.WithArtifactStore(artifacts))
	}

	routerOptions := api.Options{
		Version:      appVersion(),
		Environment:  cfg.Environment,
		Middleware:   &cfg.HTTP,
		Artifacts:    artifacts,
		Dependencies: dependencies,
		Logger:       logger,
	}

	if pm != nil {
		records = storage.Instrument(store, cfg.Storage.Type, pm)
		opts = append(opts, insights.WithRecorder(pm))
		routerOptions.Metrics = pm

		if cfg.Metrics.Port == 0 {
			routerOptions.MetricsHandler = pm.Handler()
		} else {
			if err := pm.Start(ctx); err != nil {
				return err
			}
			defer pm.Stop(context.Background())
		}
	}

	routerOptions.Records = records
	routerOptions.Service = insights.NewService(records, records, &cfg.Analytics, logger, opts...)

	srv, err := server.NewServer(&cfg.Server, api.NewRouter(routerOptions).Handler(), logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	return srv.Stop(context.Background())
}

func setupLogger(level, format string) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if format == constants.LogFormatJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
