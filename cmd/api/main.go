package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reserba/internal/api"
	"reserba/internal/config"
	"reserba/internal/database"
	"reserba/internal/domain"
	"reserba/internal/events"
	"reserba/internal/export"
	"reserba/internal/logging"
	"reserba/internal/metrics"
	"reserba/internal/notify"
	"reserba/internal/repository"
	"reserba/internal/service"
	"reserba/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := seedFacilities(context.Background(), db, cfg.Facilities); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions := initSessionStore(ctx, cfg, &logger)

	eventBus := events.NewEventBus()

	notifier := initNotifier(cfg, &logger)
	backoff := worker.Backoff{Attempts: 5, Base: 2 * time.Second, Cap: time.Minute}
	notificationWorker := worker.NewNotificationWorker(notifier, backoff, &logger)
	notificationWorker.Subscribe(eventBus)
	go notificationWorker.Start(ctx)

	location, err := time.LoadLocation(cfg.Booking.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load booking timezone %q: %w", cfg.Booking.Timezone, err)
	}

	userService := service.NewUserService(db, sessions, &logger)
	violationService := service.NewViolationService(db, sessions, eventBus, &logger)
	bookingService := service.NewBookingService(db, eventBus, violationService, cfg.Booking.MaxBookingDays, location, &logger)
	verificationService := service.NewVerificationService(db, eventBus, &logger)
	exporter := export.NewExporter(cfg.Exports.Path, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		startMetricsServer(cfg.Monitoring.PrometheusPort, &logger)
	}

	server := api.New(cfg, userService, bookingService, verificationService, db, exporter, &logger)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	notificationWorker.Wait()
	return nil
}

func seedFacilities(ctx context.Context, db *database.DB, seeds []config.FacilitySeed) error {
	for i := range seeds {
		if err := db.SeedFacility(ctx, &seeds[i].Facility, seeds[i].Slots); err != nil {
			return fmt.Errorf("failed to seed facility %q: %w", seeds[i].Facility.Name, err)
		}
	}
	return nil
}

// initSessionStore prefers redis with an in-memory fallback, keeping the API
// up through redis outages.
func initSessionStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) domain.SessionStore {
	memory := repository.NewMemorySessionStore()
	if !cfg.Redis.Enabled {
		logger.Info().Msg("redis disabled, using in-memory session store")
		return memory
	}

	client := repository.NewRedisClient(cfg.Redis)
	redisStore := repository.NewRedisSessionStore(client)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis unreachable at startup, failover store engaged")
	}
	return repository.NewFailoverSessionStore(redisStore, memory, logger)
}

func initNotifier(cfg *config.Config, logger *zerolog.Logger) domain.Notifier {
	if !cfg.Telegram.Enabled {
		return notify.NopNotifier{}
	}

	notifier, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.OfficialChatIDs, logger)
	if err != nil {
		logger.Error().Err(err).Msg("telegram notifier unavailable, notifications disabled")
		return notify.NopNotifier{}
	}
	return notifier
}

func startMetricsServer(port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		addr := fmt.Sprintf(":%d", port)
		logger.Info().Str("addr", addr).Msg("metrics server listening")
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()
}
