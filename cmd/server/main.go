package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/civicfix/report-service/internal/adapter/exifgps"
	httpadapter "github.com/civicfix/report-service/internal/adapter/http"
	kafkaadapter "github.com/civicfix/report-service/internal/adapter/kafka"
	"github.com/civicfix/report-service/internal/adapter/nominatim"
	"github.com/civicfix/report-service/internal/adapter/openweather"
	"github.com/civicfix/report-service/internal/config"
	"github.com/civicfix/report-service/internal/domain"
	"github.com/civicfix/report-service/internal/observability"
	"github.com/civicfix/report-service/internal/store"
	"github.com/civicfix/report-service/internal/triage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	st, err := store.Open(cfg.StorePath, logger)
	if err != nil {
		logger.Error("failed to open store", "path", cfg.StorePath, "error", err)
		os.Exit(1)
	}

	// Weather is enabled implicitly by OPENWEATHER_API_KEY; without it the
	// engine simulates conditions locally.
	var weather domain.WeatherSource
	if cfg.WeatherEnabled {
		weather = openweather.NewClient(cfg.WeatherAPIKey, cfg.WeatherTimeout, logger, metrics)
		logger.Info("openweather enabled", "timeout", cfg.WeatherTimeout)
	} else {
		logger.Info("openweather disabled, simulating weather locally")
	}

	var geocoder domain.Geocoder
	if cfg.GeocodeEnabled {
		client := nominatim.NewClient(cfg.GeocodeBaseURL, cfg.GeocodeTimeout, logger, metrics)
		geocoder = nominatim.NewCachedGeocoder(client, cfg.GeocodeCacheSize, metrics)
		logger.Info("nominatim geocoding enabled", "cache_size", cfg.GeocodeCacheSize, "timeout", cfg.GeocodeTimeout)
	} else {
		logger.Info("nominatim geocoding disabled")
	}

	var publisher triage.EventPublisher
	var publisherClose func() error
	if cfg.EventsEnabled {
		kp := kafkaadapter.NewPublisher(cfg, logger)
		publisher = kp
		publisherClose = kp.Close
		logger.Info("event publishing enabled", "topic", cfg.KafkaEventsTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("event publishing disabled")
	}

	engine := triage.NewEngine(triage.Options{
		Store:        st,
		Weather:      weather,
		Geocoder:     geocoder,
		ImageLocator: exifgps.NewLocator(logger),
		Publisher:    publisher,
		Clock:        clockwork.NewRealClock(),
		Logger:       logger,
		Metrics:      metrics,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, engine, st, clockwork.NewRealClock(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisherClose != nil {
		if err := publisherClose(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	if err := st.Close(); err != nil {
		logger.Error("store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
