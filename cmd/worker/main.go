package main

import (
	"context"
	"fmt"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"paysim/config"
	"paysim/internal/payments"
	"paysim/internal/payments/workers"
	"syscall"
	"time"
)

func main() {
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	shutdownTracer, err := config.InitTracer(appConfig.Telemetry)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		}
	}()

	logger := setupLogger(appConfig)

	processor, err := payments.NewProcessor(appConfig.Rules.ProcessingRules(), nil, logger)
	if err != nil {
		log.Fatal(err)
	}

	redisClient, err := setupRedisClient(appConfig)
	if err != nil {
		log.Fatal(err)
	}
	defer redisClient.Close()

	worker := workers.NewStreamWorker(redisClient, processor, workers.StreamConfig{
		Stream:        appConfig.Redis.StreamName,
		Group:         appConfig.Redis.StreamGroup,
		Consumer:      appConfig.Redis.ConsumerName,
		ResultsStream: appConfig.Redis.ResultsStream,
		BatchSize:     appConfig.Redis.BatchSize,
		Block:         appConfig.Redis.Block,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := worker.Run(ctx); err != nil {
		logger.Error("worker failed", "error", err)
		os.Exit(1)
	}

	metrics := worker.Metrics()
	logger.Info("worker finished",
		"processed", metrics.Counter(workers.MessagesProcessedTotal).Value(),
		"succeeded", metrics.Counter(workers.MessagesSucceededTotal).Value(),
		"rejected", metrics.Counter(workers.MessagesRejectedTotal).Value(),
		"failed", metrics.Counter(workers.MessagesFailedTotal).Value(),
	)
}

func setupLogger(appConfig *config.AppConfig) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: appConfig.Log.SlogLevel(),
	})

	return slog.New(handler)
}

func setupRedisClient(appConfig *config.AppConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(appConfig.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	redisClient := redis.NewClient(opt)

	if appConfig.Telemetry.Enabled {
		if err := redisotel.InstrumentTracing(redisClient); err != nil {
			return nil, err
		}

		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			return nil, err
		}
	}

	return redisClient, nil
}
