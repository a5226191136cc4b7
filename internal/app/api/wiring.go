package api

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	bmimemory "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/adapters/memory"
	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/adapters/messaging/rabbitmq"
	bmiobs "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/adapters/observability"
	bmipostgres "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/adapters/persistence/postgres"
	bmiapp "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application"
	bmiports "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/ports"
	"github.com/Apurer/go-gin-bmi-server/internal/platform/migrations"
	platformobservability "github.com/Apurer/go-gin-bmi-server/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-bmi-server/internal/platform/postgres"
)

// History bundles the storage ports backing the calculation history.
type History struct {
	Repository  bmiports.Repository
	Idempotency bmiports.IdempotencyStore
	// Durable reports whether history survives a restart.
	Durable bool
}

// BuildHistory prefers PostgreSQL and falls back to process memory.
func BuildHistory(ctx context.Context, cfg Config, logger *slog.Logger) (History, func()) {
	db, cleanup := platformpostgres.ConnectOptional(ctx, cfg.PostgresDSN, logger)
	if db == nil {
		return History{
			Repository:  bmimemory.NewRepository(),
			Idempotency: bmimemory.NewIdempotencyStore(),
		}, cleanup
	}
	if err := migrations.Run(db); err != nil {
		logger.Warn("failed to migrate bmi schema, falling back to in-memory history", slog.String("error", err.Error()))
		cleanup()
		return History{
			Repository:  bmimemory.NewRepository(),
			Idempotency: bmimemory.NewIdempotencyStore(),
		}, func() {}
	}
	logger.Info("bmi history configured with postgres")
	return History{
		Repository:  bmipostgres.NewRepository(db),
		Idempotency: bmipostgres.NewIdempotencyStore(db),
		Durable:     true,
	}, cleanup
}

// BuildEventPublisher dials RabbitMQ when configured. Events are dropped otherwise.
func BuildEventPublisher(cfg Config, logger *slog.Logger) (bmiports.EventPublisher, func()) {
	if cfg.RabbitMQAddr == "" {
		logger.Info("RABBITMQ_ADDR not set, calculation events are not published")
		return bmiports.NoopEventPublisher, func() {}
	}
	publisher, err := rabbitmq.Dial(cfg.RabbitMQAddr, cfg.RabbitMQQueue, logger)
	if err != nil {
		logger.Warn("failed to connect to rabbitmq, calculation events are not published", slog.String("error", err.Error()))
		return bmiports.NoopEventPublisher, func() {}
	}
	return publisher, func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close rabbitmq publisher", slog.String("error", err.Error()))
		}
	}
}

// NewObservedService wraps the core service with logging, tracing and metrics.
func NewObservedService(history History, instruments *platformobservability.Instruments, opts ...bmiapp.Option) bmiports.Service {
	opts = append([]bmiapp.Option{
		bmiapp.WithIdempotencyStore(history.Idempotency),
		bmiapp.WithLogger(effectiveLogger(instruments)),
	}, opts...)
	core := bmiapp.NewService(history.Repository, opts...)
	return bmiobs.New(
		core,
		bmiobs.WithLogger(effectiveLogger(instruments)),
		bmiobs.WithTracer(instruments.Tracer("internal.bmi.application")),
		bmiobs.WithMeter(instruments.Meter("internal.bmi.application")),
	)
}

// ConnectTemporalClient dials Temporal with tracing and structured logging.
func ConnectTemporalClient(cfg Config, instruments *platformobservability.Instruments, tracerName string) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer(tracerName)
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
