package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"paysim/config"
	"paysim/internal/payments"
	"paysim/internal/payments/handlers"
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

	e := echo.New()
	e.HideBanner = true

	if appConfig.Telemetry.Enabled {
		e.Use(otelecho.Middleware(appConfig.Telemetry.ServiceName))
	}
	e.Use(middleware.Recover())

	redisClient, err := setupRedisClient(appConfig)
	if err != nil {
		log.Fatal(err)
	}
	defer redisClient.Close()

	asyncHandler := handlers.NewAsyncPaymentHandler(redisClient, appConfig.Redis.StreamName, nil)
	handlers.Register(e, processor, asyncHandler)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf("%s:%d", appConfig.Server.Host, appConfig.Server.Port)
	go func() {
		logger.Info("server starting", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down server", "error", err)
	}
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
