package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/rainfall-hindcast-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/rainfall-hindcast-service/internal/adapter/kafka"
	"github.com/couchcryptid/rainfall-hindcast-service/internal/config"
	"github.com/couchcryptid/rainfall-hindcast-service/internal/model"
	"github.com/couchcryptid/rainfall-hindcast-service/internal/observability"
	"github.com/couchcryptid/rainfall-hindcast-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	loader := model.NewLoader(model.Paths{
		Model:   cfg.ModelPath,
		XScaler: cfg.ScalerXPath,
		YScaler: cfg.ScalerYPath,
	})
	artifacts := pipeline.NewArtifactHolder(loader, logger, metrics)

	// Load eagerly so a missing artifact shows up in the startup logs. The
	// service keeps running in degraded mode either way.
	_, artifactErr := artifacts.Get()

	// Kafka publishing is feature-flagged via KAFKA_ENABLED.
	var (
		publisher pipeline.Publisher
		writer    *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaPredictionTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	predictor, err := pipeline.NewPredictor(artifacts, publisher, cfg.PredictionCacheSize, logger, metrics)
	if err != nil {
		logger.Error("failed to create predictor", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, predictor, cfg.FeatureImportancePath, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start the observation stream. Without artifacts every message would be
	// skipped, so the stream stays off rather than draining the topic.
	var reader *kafkaadapter.Reader
	switch {
	case !cfg.StreamEnabled():
	case artifactErr != nil:
		logger.Warn("observation stream disabled, model artifacts unavailable", "topic", cfg.KafkaObservationTopic)
	default:
		reader = kafkaadapter.NewReader(cfg, logger)
		stream := pipeline.NewStream(reader, predictor, writer, logger, metrics, cfg.BatchSize)
		go func() {
			if err := stream.Run(ctx); err != nil {
				logger.Error("observation stream error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
