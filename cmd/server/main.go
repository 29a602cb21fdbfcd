package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"turnero/internal/api"
	"turnero/internal/booking"
	"turnero/internal/cache"
	"turnero/internal/config"
	"turnero/internal/database"
	"turnero/internal/events"
	"turnero/internal/hours"
	"turnero/internal/metrics"
	"turnero/internal/reminders"
	"turnero/internal/report"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("TURNERO_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	availCache := cache.New(rdb, cfg.CacheTTL())

	bus := events.NewEventBus()
	bus.Subscribe(events.TypeTurnoCreated, func(e events.Event) error {
		logger.Debug().Str("type", e.Type).RawJSON("payload", e.Payload).Msg("event")
		return nil
	})
	bus.Subscribe(events.TypeTurnoCanceled, func(e events.Event) error {
		logger.Debug().Str("type", e.Type).RawJSON("payload", e.Payload).Msg("event")
		return nil
	})

	resolver := hours.NewResolver(db)
	svc := booking.NewService(db, resolver, availCache, bus, &logger)
	exporter := report.NewExporter(db)

	var reminderSvc *reminders.Service
	if cfg.Reminders.Enabled {
		var notifier reminders.Notifier
		if cfg.Reminders.GatewayURL != "" {
			notifier = reminders.NewGatewayNotifier(cfg.Reminders.GatewayURL, cfg.Reminders.GatewayToken)
		} else {
			logger.Warn().Msg("reminders enabled without gateway_url; logging reminders instead")
			notifier = &reminders.LogNotifier{Logf: func(phone, message string) {
				logger.Info().Str("phone", phone).Str("message", message).Msg("reminder (dry run)")
			}}
		}
		reminderSvc, err = reminders.NewService(&reminders.Config{
			CheckInterval:  cfg.ReminderCheckInterval(),
			HoursBefore:    cfg.Reminders.HoursBefore,
			SendsPerSecond: cfg.Reminders.SendsPerSecond,
			Template:       cfg.Reminders.Template,
		}, db, db, notifier, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("create reminder service error")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	if reminderSvc != nil {
		reminderSvc.Start()
		defer reminderSvc.Stop()
	}

	if cfg.Backup.Enabled {
		backupSvc := database.NewBackupService(cfg.Database.Path, database.BackupConfig{
			Enabled:       true,
			StoragePath:   cfg.Backup.StoragePath,
			IntervalHours: cfg.Backup.IntervalHours,
			RetentionDays: cfg.Backup.RetentionDays,
		}, &logger)
		go backupSvc.Start(ctx)
	}

	server := api.NewServer(svc, db, exporter, cfg.Server.CORSOrigins, &logger)
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.Handler(),
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(ctxShutdown)
	}()

	logger.Info().Int("port", cfg.Server.Port).Msg("turnero started")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("http server error")
	}
}

func startHealthServer(ctx context.Context, port int, db *database.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
