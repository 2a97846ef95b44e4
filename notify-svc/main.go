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
	httpapi "tablebook/notify-svc/internal/api/http"
	"tablebook/notify-svc/internal/metrics"
	"tablebook/notify-svc/internal/service"
	"tablebook/notify-svc/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "notify-svc:", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg, "notify-svc")

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("notify-svc stopped")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	if cfg.StoreDriver != "postgres" {
		return fmt.Errorf("notify-svc needs STORE_DRIVER=postgres, got %q", cfg.StoreDriver)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New("notify", reg)

	db := config.MustInitPostgres(cfg.Postgres, logger)
	defer db.Close()
	if err := storage.Migrate(db); err != nil {
		return err
	}
	store := storage.NewStore(db)

	handler := httpapi.NewHandler(service.NewInboxService(store), logger)
	handler.Ready = store.Ping

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(handler, auth.NewVerifier(cfg.JWTSecret), m),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Kafka.Broker != "" {
		reader := config.NewKafkaReader(cfg.Kafka)
		defer reader.Close()
		consumer := service.NewConsumer(reader, store, m, logger)
		g.Go(func() error {
			return consumer.Start(gctx)
		})
	} else {
		logger.Warn().Msg("KAFKA_BROKER not set, inbox is read-only")
	}

	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPAddr).Str("topic", cfg.Kafka.Topic).Msg("notify-svc listening")
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
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
