package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/plutocart/user-service/api/controllers"
	"github.com/plutocart/user-service/api/routes"
	"github.com/plutocart/user-service/internal/auth"
	"github.com/plutocart/user-service/internal/users"
	pkgAuth "github.com/plutocart/user-service/pkg/auth"
	"github.com/plutocart/user-service/pkg/config"
	"github.com/plutocart/user-service/pkg/db"
	"github.com/plutocart/user-service/pkg/events"
	"github.com/plutocart/user-service/pkg/instance"
	"github.com/plutocart/user-service/pkg/logger"
	"github.com/plutocart/user-service/pkg/metrics"
	"github.com/plutocart/user-service/pkg/migrate"
	"github.com/plutocart/user-service/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "user-service"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "user-service",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	// The guard and the readiness check stay nil interfaces when redis is off.
	var (
		guard       auth.RegistrationGuard
		redisPinger controllers.Pinger
	)
	if cfg.Redis.Enabled() {
		var redisClient *redis.Client
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, redisClient.Close()) }()
		guard = redisClient
		redisPinger = redisClient
	} else {
		logg.Warn(ctx, "redis not configured, registration guard disabled")
	}

	var publisher events.Publisher
	if cfg.Kafka.Enabled() {
		var kafkaPublisher *events.KafkaPublisher
		kafkaPublisher, err = events.NewKafkaPublisher(cfg.Kafka)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, kafkaPublisher.Close()) }()
		publisher = kafkaPublisher
	} else {
		logg.Warn(ctx, "kafka not configured, user events disabled")
	}

	tokens, err := pkgAuth.NewManager(cfg.JWT)
	if err != nil {
		return err
	}

	registry := metrics.NewRegistry()

	authService, err := auth.NewService(auth.ServiceParams{
		Users:          users.NewRepository(dbClient.DB()),
		Tokens:         tokens,
		Guard:          guard,
		Events:         publisher,
		PasswordConfig: cfg.Password,
		AuthConfig:     cfg.Auth,
		Metrics:        metrics.NewAuthMetrics(registry.Registerer()),
		Logger:         logg,
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, registry, dbClient, redisPinger, tokens, authService),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
