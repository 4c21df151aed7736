package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hoshizora/content-embed-worker/internal/app"
	"github.com/hoshizora/content-embed-worker/internal/platform/config"
	db "github.com/hoshizora/content-embed-worker/internal/storage"
)

func main() {
	mode := flag.String("mode", "worker", "Service mode (worker, monitor, enqueue, set-setting)")
	targetType := flag.String("target-type", "", "Target type for enqueue mode")
	targetID := flag.String("target-id", "", "Target ID for enqueue mode")
	settingKey := flag.String("setting-key", "", "Settings key for set-setting mode")
	settingValue := flag.String("setting-value", "", "JSON settings value for set-setting mode")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poolOpts := db.PoolOptions{
		MaxConns:          cfg.DBMaxConnections,
		MinConns:          cfg.DBMinConnections,
		MaxConnIdleTime:   cfg.DBMaxConnIdleTime,
		MaxConnLifetime:   cfg.DBMaxConnLifetime,
		HealthCheckPeriod: cfg.DBHealthCheckPeriod,
	}

	database, err := db.NewWithOptions(ctx, cfg.PostgresDSN, poolOpts, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	application := app.New(cfg, database, &logger)

	if *mode == "worker" {
		// Health and metrics only matter for the long-running mode.
		go func() {
			if err := application.StartHealthServer(ctx); err != nil {
				logger.Error().Err(err).Msg("health check server error")
			}
		}()
	}

	args := modeArgs{
		targetType:   *targetType,
		targetID:     *targetID,
		settingKey:   *settingKey,
		settingValue: *settingValue,
	}

	if err := runMode(ctx, application, *mode, args); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		logger.Fatal().Err(err).Msg("application error")
	}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

type modeArgs struct {
	targetType, targetID     string
	settingKey, settingValue string
}

func runMode(ctx context.Context, application *app.App, mode string, args modeArgs) error {
	switch mode {
	case "worker":
		return application.RunWorker(ctx)
	case "monitor":
		return application.RunMonitor(ctx)
	case "enqueue":
		return application.RunEnqueue(ctx, args.targetType, args.targetID)
	case "set-setting":
		return application.RunSetSetting(ctx, args.settingKey, args.settingValue)
	default:
		log.Fatalf("Usage: %s --mode=[worker|monitor|enqueue|set-setting]", os.Args[0])

		return nil
	}
}
