package api

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"golang.org/x/time/rate"

	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/adapters/messaging/rabbitmq"
)

// Config carries environment-driven settings for the BMI processes.
type Config struct {
	Port              string
	PostgresDSN       string
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
	RabbitMQAddr      string
	RabbitMQQueue     string
	RateLimit         rate.Limit
	RateLimitBurst    int
	HistoryRetention  time.Duration
}

// LoadConfig reads an optional .env file, then environment variables, applies defaults,
// and validates basic constraints.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg := Config{
		Port:              envDefault("PORT", "8080"),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		RabbitMQAddr:      strings.TrimSpace(os.Getenv("RABBITMQ_ADDR")),
		RabbitMQQueue:     envDefault("RABBITMQ_QUEUE", rabbitmq.DefaultQueue),
		RateLimit:         100,
		RateLimitBurst:    200,
		HistoryRetention:  90 * 24 * time.Hour,
	}
	if raw := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil || rps < 0 {
			return Config{}, fmt.Errorf("RATE_LIMIT_RPS must be a non-negative number")
		}
		cfg.RateLimit = rate.Limit(rps)
	}
	if raw := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); raw != "" {
		burst, err := strconv.Atoi(raw)
		if err != nil || burst <= 0 {
			return Config{}, fmt.Errorf("RATE_LIMIT_BURST must be a positive integer")
		}
		cfg.RateLimitBurst = burst
	}
	if raw := strings.TrimSpace(os.Getenv("HISTORY_RETENTION_DAYS")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			return Config{}, fmt.Errorf("HISTORY_RETENTION_DAYS must be a positive integer")
		}
		cfg.HistoryRetention = time.Duration(days) * 24 * time.Hour
	}
	return cfg, nil
}

// Limiter builds the request limiter. A zero rate disables limiting.
func (c Config) Limiter() *rate.Limiter {
	if c.RateLimit == 0 {
		return nil
	}
	return rate.NewLimiter(c.RateLimit, c.RateLimitBurst)
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
