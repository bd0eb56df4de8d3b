package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tm-acme-shop/acme-shop-orders-users/internal/auth"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/config"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/events"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/logging"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/repository"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/server"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/service"
)

func main() {
	cfg := config.Load(config.ServiceUsers)

	if err := logging.Init(logging.Config{
		Service: cfg.Service,
		Dir:     cfg.Logging.Dir,
		Level:   cfg.Logging.Level,
	}); err != nil {
		logging.NewLoggerV2("users-service").Fatal("Failed to initialise logging", logging.Fields{"error": err.Error()})
	}
	defer logging.Sync()

	logger := logging.NewLoggerV2("users-service")

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", logging.Fields{"error": err.Error()})
	}

	tokens, err := auth.NewTokenManager(cfg.Auth)
	if err != nil {
		logger.Fatal("Invalid token settings", logging.Fields{"error": err.Error()})
	}

	logging.Infof("Starting users-service on port %d", cfg.Server.Port)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := repository.Open(startCtx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", logging.Fields{"error": err.Error()})
	}
	defer db.Close()

	if err := db.EnsureSchema(startCtx); err != nil {
		logger.Fatal("Failed to create schema", logging.Fields{"error": err.Error()})
	}
	cancelStart()

	userRepo := repository.NewPostgresUserRepository(db, logger)

	var eventPublisher events.UserPublisher = events.NopPublisher{}
	if cfg.Features.EnableEvents {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.UsersTopic, logger)
		defer kafkaPublisher.Close()
		eventPublisher = kafkaPublisher
	}

	metrics.Register(prometheus.DefaultRegisterer)

	userService := service.NewUserService(userRepo, tokens, eventPublisher, cfg)

	srv := server.NewUsersServer(
		cfg,
		handlers.NewUserHandlers(userService),
		handlers.NewHealthHandlers(cfg.Service, db),
	)

	go func() {
		logger.Info("Server starting", logging.Fields{
			"port":          cfg.Server.Port,
			"algorithm":     cfg.Auth.Algorithm,
			"token_ttl":     cfg.Auth.TokenTTL.String(),
			"enable_events": cfg.Features.EnableEvents,
		})
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", logging.Fields{"error": err.Error()})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", logging.Fields{"error": err.Error()})
	}

	logger.Info("Server exited")
}
