package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/crimewatch-service/internal/adapter/account"
	"github.com/couchcryptid/crimewatch-service/internal/adapter/crimes"
	httpadapter "github.com/couchcryptid/crimewatch-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/crimewatch-service/internal/adapter/kafka"
	"github.com/couchcryptid/crimewatch-service/internal/adapter/postcodes"
	"github.com/couchcryptid/crimewatch-service/internal/adapter/prediction"
	"github.com/couchcryptid/crimewatch-service/internal/config"
	"github.com/couchcryptid/crimewatch-service/internal/domain"
	"github.com/couchcryptid/crimewatch-service/internal/observability"
	"github.com/couchcryptid/crimewatch-service/internal/service"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Postcode resolver, optionally cached (POSTCODES_CACHE_SIZE > 0).
	var resolver domain.LocationResolver = postcodes.NewClient(cfg.PostcodesAPIURL, cfg.UpstreamTimeout, metrics, logger)
	if cfg.PostcodesCacheSize > 0 {
		resolver = postcodes.NewCachedResolver(resolver, cfg.PostcodesCacheSize, metrics)
		logger.Info("postcode cache enabled", "cache_size", cfg.PostcodesCacheSize)
	}

	source := crimes.NewClient(cfg.CrimeAPIURL, cfg.UpstreamTimeout, metrics, logger)
	predictor := prediction.NewClient(cfg.PredictionAPIURL, cfg.UpstreamTimeout, metrics, logger)
	store := account.NewClient(cfg.CrimeAPIURL, cfg.UpstreamTimeout, metrics, logger)

	// Digest publishing is feature-flagged via KAFKA_ENABLED.
	var (
		publisher domain.DigestPublisher
		writer    *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("digest publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaDigestTopic)
	} else {
		logger.Info("digest publishing disabled")
	}

	svc := service.New(resolver, source, predictor, publisher, logger, metrics)
	accounts := service.NewAccounts(store, resolver, logger)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, metrics, logger,
		httpadapter.NewIncidentHandler(svc),
		httpadapter.NewAccountHandler(accounts),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()
	svc.SetReady(true)

	<-ctx.Done()
	logger.Info("shutting down")
	svc.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
