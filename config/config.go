package config

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const NotificationsTopic = "notifications"

type Config struct {
	HTTPAddr    string
	StoreDriver string
	LogLevel    string
	LogPretty   bool
	JWTSecret   []byte

	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Booking  BookingConfig
}

type PostgresConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	IdempotencyTTL time.Duration
}

type KafkaConfig struct {
	Broker  string
	Topic   string
	GroupID string
}

// BookingConfig holds the reservation policy knobs.
type BookingConfig struct {
	BufferMinutes      int
	AllowOvernight     bool
	MaxAttempts        int
	Timezone           string
	NotifyBuffer       int
	RateLimitPerMinute int
}

// Load reads configuration from the environment. A .env file in the working
// directory, if present, is loaded first and never overrides real variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:    getEnv("HTTP_ADDR", ":8081"),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogPretty:   getBool("LOG_PRETTY", false),
		JWTSecret:   []byte(os.Getenv("JWT_SECRET_KEY")),
		Postgres: PostgresConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "tablebook"),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:           redisAddr(),
			Password:       os.Getenv("REDIS_PASSWORD"),
			DB:             getInt("REDIS_DB", 0),
			IdempotencyTTL: time.Duration(getInt("IDEMPOTENCY_TTL_HOURS", 24)) * time.Hour,
		},
		Kafka: KafkaConfig{
			Broker:  os.Getenv("KAFKA_BROKER"),
			Topic:   getEnv("KAFKA_NOTIFICATIONS_TOPIC", NotificationsTopic),
			GroupID: getEnv("KAFKA_GROUP_ID", "notify-svc"),
		},
		Booking: BookingConfig{
			BufferMinutes:      getInt("BOOKING_BUFFER_MINUTES", 120),
			AllowOvernight:     getBool("BOOKING_ALLOW_OVERNIGHT", false),
			MaxAttempts:        getInt("BOOKING_MAX_ATTEMPTS", 3),
			Timezone:           getEnv("BOOKING_TIMEZONE", "Local"),
			NotifyBuffer:       getInt("NOTIFY_QUEUE_SIZE", 256),
			RateLimitPerMinute: getInt("BOOKING_RATE_LIMIT_PER_MINUTE", 30),
		},
	}

	if len(cfg.JWTSecret) == 0 {
		return nil, fmt.Errorf("JWT_SECRET_KEY not set")
	}
	if cfg.StoreDriver != "postgres" && cfg.StoreDriver != "memory" {
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.Booking.BufferMinutes <= 0 || cfg.Booking.BufferMinutes >= 24*60 {
		return nil, fmt.Errorf("BOOKING_BUFFER_MINUTES must be between 1 and 1439, got %d", cfg.Booking.BufferMinutes)
	}
	if cfg.Booking.MaxAttempts <= 0 {
		cfg.Booking.MaxAttempts = 1
	}
	if _, err := cfg.Location(); err != nil {
		return nil, fmt.Errorf("BOOKING_TIMEZONE: %w", err)
	}
	return cfg, nil
}

// Location resolves the wall-clock zone the restaurants operate in.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Booking.Timezone)
}

func (c PostgresConfig) DSN() string {
	return "host=" + c.Host + " port=" + c.Port + " user=" + c.User +
		" password=" + c.Password + " dbname=" + c.Name + " sslmode=" + c.SSLMode
}

// NewLogger builds the process logger; pretty output is meant for local runs.
func NewLogger(cfg *Config, service string) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.LogPretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Str("service", service).Logger()
}

func MustInitPostgres(cfg PostgresConfig, logger zerolog.Logger) *sql.DB {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}

	if err = db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping database")
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return db
}

func MustInitRedis(cfg RedisConfig, logger zerolog.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.Addr).Msg("failed to connect to redis")
	}

	return client
}

func NewKafkaReader(cfg KafkaConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{cfg.Broker},
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})
}

func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Broker),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

func redisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		return ""
	}
	return host + ":" + getEnv("REDIS_PORT", "6379")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
