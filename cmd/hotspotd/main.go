// Command hotspotd serves the noise report intake and hotspot ranking API
// over the CSV datasets in DATA_DIR.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/quietcity/noise-hotspot-service/internal/adapter/csvstore"
	"github.com/quietcity/noise-hotspot-service/internal/adapter/httpapi"
	kafkaadapter "github.com/quietcity/noise-hotspot-service/internal/adapter/kafka"
	"github.com/quietcity/noise-hotspot-service/internal/config"
	"github.com/quietcity/noise-hotspot-service/internal/domain"
	"github.com/quietcity/noise-hotspot-service/internal/observability"
	"github.com/quietcity/noise-hotspot-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()
	store := csvstore.New(cfg.DataDir)

	// Change-event publishing is feature-flagged via KAFKA_ENABLED.
	var publisher service.Publisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaEventsTopic, clock, logger)
		publisher = kafkaPublisher
		logger.Info("kafka change events enabled", "topic", cfg.KafkaEventsTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka change events disabled")
	}

	core := service.New(store, clock, logger, metrics, service.Options{
		Policy:      service.DuplicatePolicy(cfg.DuplicatePolicy),
		Variant:     domain.ScoringVariant(cfg.ScoringVariant),
		DefaultTopN: cfg.HotspotTopN,
		Publisher:   publisher,
	})
	if err := core.Load(); err != nil {
		logger.Error("failed to load tables", "error", err, "data_dir", cfg.DataDir)
		os.Exit(1)
	}

	srv := httpapi.NewServer(cfg.HTTPAddr, core, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
