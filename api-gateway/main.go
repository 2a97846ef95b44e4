package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"tablebook/api-gateway/internal/gateway"
	"tablebook/config"
)

func main() {
	_ = godotenv.Load()

	pretty, _ := strconv.ParseBool(os.Getenv("LOG_PRETTY"))
	logger := config.NewLogger(&config.Config{LogLevel: getEnv("LOG_LEVEL", "info"), LogPretty: pretty}, "api-gateway")

	cfg := gateway.Config{
		BookingSvcURL: getEnv("BOOKING_SVC_URL", "http://localhost:8081"),
		NotifySvcURL:  getEnv("NOTIFY_SVC_URL", "http://localhost:8082"),
		FrontendDir:   os.Getenv("FRONTEND_DIR"),
	}
	addr := getEnv("HTTP_ADDR", ":8080")

	gw := gateway.NewGateway(cfg, &http.Client{Timeout: 15 * time.Second}, logger)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders: []string{"Retry-After"},
	})
	srv := &http.Server{
		Addr:              addr,
		Handler:           c.Handler(gw.SetupRoutes()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	}()

	logger.Info().
		Str("addr", addr).
		Str("booking_svc", cfg.BookingSvcURL).
		Str("notify_svc", cfg.NotifySvcURL).
		Msg("api-gateway listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("api-gateway stopped")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
