package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tablebook/auth"
	"tablebook/config"
	httpapi "tablebook/booking-svc/internal/api/http"
	"tablebook/booking-svc/internal/metrics"
	"tablebook/booking-svc/internal/notify"
	"tablebook/booking-svc/internal/schedule"
	"tablebook/booking-svc/internal/service"
	"tablebook/booking-svc/internal/storage"
)

type store interface {
	service.BookingStore
	service.ReservationRepository
	service.TableRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "booking-svc:", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg, "booking-svc")

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("booking-svc stopped")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	policy := schedule.Policy{
		BufferMinutes:  cfg.Booking.BufferMinutes,
		AllowOvernight: cfg.Booking.AllowOvernight,
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New("booking", reg)

	var (
		st          store
		idempotency service.IdempotencyStore
		publisher   notify.Publisher = notify.LogPublisher{Logger: logger}
		checks      []func(context.Context) error
	)

	switch cfg.StoreDriver {
	case "memory":
		st = storage.NewMemoryStore()
		logger.Warn().Msg("using in-memory store, data is lost on restart")
	default:
		db := config.MustInitPostgres(cfg.Postgres, logger)
		defer db.Close()
		if err := storage.Migrate(db); err != nil {
			return err
		}
		repo := storage.NewPostgresRepository(db)
		st = repo
		checks = append(checks, repo.Ping)
	}

	if cfg.Redis.Addr != "" {
		rdb := config.MustInitRedis(cfg.Redis, logger)
		defer rdb.Close()
		idempotency = storage.NewRedisIdempotency(rdb, cfg.Redis.IdempotencyTTL)
		checks = append(checks, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	} else {
		logger.Warn().Msg("REDIS_ADDR not set, Idempotency-Key headers are ignored")
	}

	if cfg.Kafka.Broker != "" {
		writer := config.NewKafkaWriter(cfg.Kafka)
		defer writer.Close()
		publisher = storage.NewKafkaPublisher(writer)
	} else {
		logger.Warn().Msg("KAFKA_BROKER not set, notifications are only logged")
	}

	dispatcher := notify.NewDispatcher(publisher, cfg.Booking.NotifyBuffer, m, logger)

	availability := service.NewAvailabilityService(st, policy)
	bookings := service.NewBookingService(st, dispatcher, logger, service.BookingOptions{
		Policy:      policy,
		MaxAttempts: cfg.Booking.MaxAttempts,
		Idempotency: idempotency,
		Metrics:     m,
	})
	reservations := service.NewReservationService(st, dispatcher, service.DefaultQRGenerator{}, m, service.RealClock{}, loc, logger)
	tables := service.NewTableService(st, policy, service.RealClock{}, loc, logger)

	handler := httpapi.NewHandler(availability, bookings, reservations, tables, logger)
	handler.Limiter = httpapi.NewRateLimiter(cfg.Booking.RateLimitPerMinute)
	handler.Ready = func(ctx context.Context) error {
		for _, check := range checks {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(handler, auth.NewVerifier(cfg.JWTSecret), m),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stopped only after the server has drained.
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(dispatchCtx)
	})
	g.Go(func() error {
		logger.Info().
			Str("addr", cfg.HTTPAddr).
			Str("store", cfg.StoreDriver).
			Int("buffer_minutes", policy.BufferMinutes).
			Msg("booking-svc listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		stopDispatch()
		return err
	})
	return g.Wait()
}
