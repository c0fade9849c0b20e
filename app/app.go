package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/account-service-go/configs"
	"github.com/nimeshabuddhika/account-service-go/internal/api"
	"github.com/nimeshabuddhika/account-service-go/internal/handlers"
	"github.com/nimeshabuddhika/account-service-go/internal/services"
	"github.com/nimeshabuddhika/account-service-go/pkg"
	"github.com/nimeshabuddhika/account-service-go/pkg/cache"
	"github.com/nimeshabuddhika/account-service-go/pkg/database"
	middleware "github.com/nimeshabuddhika/account-service-go/pkg/middlewares"
	"github.com/nimeshabuddhika/account-service-go/pkg/repositories"
	"github.com/nimeshabuddhika/account-service-go/pkg/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewApp wires dependencies, builds the Gin engine, and returns an *http.Server and a cleanup func.
// It reads configuration from environment variables via configs.Load.
func NewApp(ctx context.Context, logger *zap.Logger) (*http.Server, func(), error) {
	// Load config
	cfg, err := configs.Load(logger)
	if err != nil {
		return nil, nil, err
	}

	// Initialize postgres db
	dbConfig := database.Config{
		PrimaryDSN:  cfg.PrimaryDbAddr,
		ReplicaDSNs: []string{cfg.ReplicaDbAddr},
		MaxConns:    cfg.MaxDbCons,
		MinConns:    cfg.MinDbCons,
	}
	db, disconnect, err := database.New(ctx, logger, dbConfig)
	if err != nil {
		return nil, nil, err
	}

	// Run migrations on primary
	if err = database.RunMigrations(logger, cfg.PrimaryDbAddr); err != nil {
		disconnect()
		return nil, nil, err
	}

	// Redis backs the distributed rate-limit counter; without it the limiter
	// stays per-instance.
	var redisClient *redis.Client
	redisCloser := func() {}
	if !utils.IsEmpty(cfg.RedisAddr) {
		redisClient, redisCloser, err = cache.New(ctx, cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			disconnect()
			return nil, nil, err
		}
		logger.Info("redis client initialized", zap.String("addr", cfg.RedisAddr))
	}

	// Lifecycle events go to Kafka when brokers are configured.
	var publisher services.EventPublisher
	if utils.IsEmpty(cfg.KafkaBrokers) {
		publisher = services.NewNoopEventPublisher(logger)
	} else {
		publisher = services.NewKafkaEventPublisher(logger, ctx, cfg)
	}

	// Setup dependencies
	baseHandler := handlers.NewBaseHandler(logger)
	accountRepo := repositories.NewAccountRepository()
	accountService := services.NewAccountService(logger, db, accountRepo, publisher)
	accountHandler := handlers.NewAccountHandler(logger, accountService)

	limiter := pkg.NewDistributedLimiter(redisClient, "accounts:http_rate", cfg.RateLimitRps, cfg.RateLimitBurst, time.Minute, logger)

	// Router
	r := gin.Default()

	api.RegisterDocsRoutes(r)
	baseHandler.RegisterRoutes(r)

	// Middleware wraps the resource routes only; banner, health, metrics and
	// docs stay unwrapped.
	resource := r.Group("/")
	resource.Use(middleware.TraceID())
	resource.Use(middleware.Metrics())
	resource.Use(middleware.RateLimit(limiter))

	accountHandler.RegisterRoutes(resource)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	cleanup := func() {
		// close db pools
		disconnect()
		// close redis client
		redisCloser()
		// close kafka producer
		publisher.Close()
	}

	return srv, cleanup, nil
}
