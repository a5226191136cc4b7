package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	appapi "github.com/Apurer/go-gin-bmi-server/internal/app/api"
	bmipostgres "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/adapters/persistence/postgres"
	bmiapp "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application"
	bmitypes "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application/types"
	"github.com/Apurer/go-gin-bmi-server/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-bmi-server/internal/platform/postgres"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := observability.NewLogger(os.Stdout, observability.LoggerOptionsFromEnv())
	cfg, err := appapi.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	db, cleanup := platformpostgres.ConnectOptional(ctx, cfg.PostgresDSN, logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot purge calculation history")
	}

	service := bmiapp.NewService(bmipostgres.NewRepository(db))
	cutoff := time.Now().Add(-cfg.HistoryRetention)
	removed, err := service.PurgeCalculations(ctx, bmitypes.PurgeCalculationsInput{Before: cutoff})
	if err != nil {
		log.Fatalf("failed to purge calculation history: %v", err)
	}
	logger.Info("calculation history purge completed",
		slog.Int64("removed", removed),
		slog.Time("cutoff", cutoff.UTC()),
	)
}
