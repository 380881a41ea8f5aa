package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"orderflow/cmd"
	postgresadapter "orderflow/internal/adapters/out/postgres"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	configs := getConfigs()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := gorm.Open(postgres.Open(configs.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	if err = postgresadapter.Migrate(gormDB); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	app, err := cmd.NewCompositionRoot(ctx, configs, gormDB, logger)
	if err != nil {
		log.Fatalf("failed to build application: %v", err)
	}

	e, err := app.Router()
	if err != nil {
		log.Fatalf("failed to build router: %v", err)
	}
	if err = app.Jobs().StartAll(); err != nil {
		log.Fatalf("failed to start jobs: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return startWebServer(e, configs.HTTPPort)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return app.RateLimiter().Run(gctx)
	})
	if bridge := app.Bridge(); bridge != nil {
		g.Go(func() error {
			return bridge.Run(gctx)
		})
	}

	logger.Info("service started", "port", configs.HTTPPort)
	err = g.Wait()

	app.Jobs().StopAll()
	app.Close()

	if err != nil {
		log.Fatalf("service stopped: %v", err)
	}
	logger.Info("service stopped")
}

func getConfigs() cmd.Config {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	return cmd.Config{
		HTTPPort:              os.Getenv("HTTP_PORT"),
		DBHost:                os.Getenv("DB_HOST"),
		DBPort:                os.Getenv("DB_PORT"),
		DBUser:                os.Getenv("DB_USER"),
		DBPassword:            os.Getenv("DB_PASSWORD"),
		DBName:                os.Getenv("DB_NAME"),
		DBSslMode:             os.Getenv("DB_SSLMODE"),
		AMQPURL:               os.Getenv("AMQP_URL"),
		AMQPExchange:          envOr("AMQP_EXCHANGE", "orderflow.rooms"),
		PGNotifyChannel:       os.Getenv("PG_NOTIFY_CHANNEL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		BranchCacheTTL:        durationVariable("BRANCH_CACHE_TTL", 10*time.Minute),
		FCMCredentialsFile:    os.Getenv("FCM_CREDENTIALS_FILE"),
		PickupCompletionDelay: durationVariable("PICKUP_COMPLETION_DELAY", 5*time.Minute),
		RateLimitRPS:          floatVariable("RATE_LIMIT_RPS", 5),
		RateLimitBurst:        intVariable("RATE_LIMIT_BURST", 10),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationVariable(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return d
}

func floatVariable(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return f
}

func intVariable(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return n
}

func startWebServer(e *echo.Echo, port string) error {
	err := e.Start(fmt.Sprintf("0.0.0.0:%s", port))
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
