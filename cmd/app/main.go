package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"booking-service/internal/availability"
	"booking-service/internal/config"
	apptCancel "booking-service/internal/http-server/handlers/appointments/cancel"
	apptCreate "booking-service/internal/http-server/handlers/appointments/create"
	apptGet "booking-service/internal/http-server/handlers/appointments/get"
	apptReschedule "booking-service/internal/http-server/handlers/appointments/reschedule"
	apptStatus "booking-service/internal/http-server/handlers/appointments/status"
	blockedCreate "booking-service/internal/http-server/handlers/blocked_slots/create"
	blockedDelete "booking-service/internal/http-server/handlers/blocked_slots/delete"
	blockedGet "booking-service/internal/http-server/handlers/blocked_slots/get"
	policyGet "booking-service/internal/http-server/handlers/policy/get"
	policyStream "booking-service/internal/http-server/handlers/policy/stream"
	slotGet "booking-service/internal/http-server/handlers/slots/get"
	"booking-service/internal/lock"
	"booking-service/internal/policy"
	"booking-service/internal/schedule"
	svc "booking-service/internal/service"
	"booking-service/internal/storage/mongo"
	"booking-service/internal/storage/postgres"
	"booking-service/internal/tracing"
	slogpretty "booking-service/pkg/handlers/slogPretty"
	"booking-service/pkg/middleware/mwLogger"
	"booking-service/pkg/middleware/ratelimit"
	"booking-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

type storage interface {
	svc.Store
	Close() error
}

func main() {

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	shutdownTracing, err := tracing.Setup(context.Background(), cfg.Tracing)
	if err != nil {
		log.Error("Failed to init tracing", sl.Err(err))
		os.Exit(1)
	}

	loc, err := cfg.Schedule.Location()
	if err != nil {
		log.Error("Failed to load timezone", slog.String("timezone", cfg.Schedule.Timezone), sl.Err(err))
		os.Exit(1)
	}

	table, err := schedule.New(cfg.Schedule.Days())
	if err != nil {
		log.Error("Invalid schedule", sl.Err(err))
		os.Exit(1)
	}

	rules, err := cfg.Policy.Rules()
	if err != nil {
		log.Error("Invalid policy", sl.Err(err))
		os.Exit(1)
	}

	evaluator, err := policy.NewEvaluator(rules, loc)
	if err != nil {
		log.Error("Invalid policy", sl.Err(err))
		os.Exit(1)
	}

	store, err := setupStorage(cfg.Storage)
	if err != nil {
		log.Error("Failed to init storage", slog.String("driver", cfg.Storage.Driver), sl.Err(err))
		os.Exit(1)
	}

	locker, err := lock.NewRedisLock(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Error("Failed to init redis lock", sl.Err(err))
		os.Exit(1)
	}

	resolver := availability.NewResolver(table, store, store)

	service := svc.NewService(store, locker, resolver, evaluator,
		svc.WithLockTTL(cfg.Redis.LockTTL),
		svc.WithRefreshInterval(cfg.Policy.RefreshInterval),
	)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.HTTPServer.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	router.Use(middleware.Heartbeat("/healthz"))

	limiter := ratelimit.New(cfg.HTTPServer.RateLimitRPS, cfg.HTTPServer.RateLimitBurst)

	// Public
	router.Group(func(r chi.Router) {
		r.Use(limiter.Handler)

		r.Get("/slots", slotGet.New(log, service))
		r.Get("/policy", policyGet.New(log, service))
		r.Post("/appointments", apptCreate.New(log, service))
	})

	// Appointments
	router.Get("/appointments", apptGet.New(log, service))
	router.Get("/appointments/{id}", apptGet.New(log, service))
	router.Put("/appointments/{id}/cancel", apptCancel.New(log, service))
	router.Post("/appointments/{id}/reschedule", apptReschedule.New(log, service))
	router.Put("/appointments/{id}/status", apptStatus.New(log, service))
	router.Get("/appointments/{id}/policy", policyGet.New(log, service))
	router.Get("/appointments/{id}/policy/stream", policyStream.New(log, service))

	// Blocked slots
	router.Post("/blocked_slots", blockedCreate.New(log, service))
	router.Get("/blocked_slots", blockedGet.New(log, service))
	router.Get("/blocked_slots/{id}", blockedGet.New(log, service))
	router.Delete("/blocked_slots/{id}", blockedDelete.New(log, service))

	serv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      tracing.Handler(cfg.Tracing, router),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.HTTPServer.Address))
		if err := serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	if err := store.Close(); err != nil {
		log.Error("Failed to close storage", sl.Err(err))
	} else {
		log.Info("Storage closed")
	}

	if err := locker.Close(); err != nil {
		log.Error("Failed to close locker", sl.Err(err))
	} else {
		log.Info("Locker closed")
	}

	if err := shutdownTracing(ctx); err != nil {
		log.Error("Failed to flush traces", sl.Err(err))
	}

	log.Info("Shutdown finished, server stopped")
}

func setupStorage(cfg config.Storage) (storage, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.New(cfg.PostgresDSN)
	case "mongo":
		return mongo.New(cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
