package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tm-acme-shop/acme-shop-orders-users/internal/clients"
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
	cfg := config.Load(config.ServiceOrders)

	if err := logging.Init(logging.Config{
		Service: cfg.Service,
		Dir:     cfg.Logging.Dir,
		Level:   cfg.Logging.Level,
	}); err != nil {
		logging.NewLoggerV2("orders-service").Fatal("Failed to initialise logging", logging.Fields{"error": err.Error()})
	}
	defer logging.Sync()

	logger := logging.NewLoggerV2("orders-service")

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", logging.Fields{"error": err.Error()})
	}

	logging.Infof("Starting orders-service on port %d", cfg.Server.Port)

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

	orderRepo := repository.NewPostgresOrderRepository(db, logger)

	health := handlers.NewHealthHandlers(cfg.Service, db)

	var orderCache repository.OrderCache
	if cfg.Features.EnableOrderCaching {
		redisCache := repository.NewRedisOrderCache(cfg.Redis)
		defer redisCache.Close()
		orderCache = redisCache
		health.WithCache(redisCache)
	}

	var eventPublisher events.OrderPublisher = events.NopPublisher{}
	if cfg.Features.EnableEvents {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.OrdersTopic, logger)
		defer kafkaPublisher.Close()
		eventPublisher = kafkaPublisher
	}

	metrics.Register(prometheus.DefaultRegisterer)

	userClient := clients.NewHTTPUserClient(cfg.UserService, logger)
	orderService := service.NewOrderService(orderRepo, orderCache, eventPublisher, cfg)

	srv := server.NewOrdersServer(
		cfg,
		handlers.NewOrderHandlers(orderService),
		health,
		userClient,
	)

	go func() {
		logger.Info("Server starting", logging.Fields{
			"port":                 cfg.Server.Port,
			"user_service_url":     cfg.UserService.BaseURL,
			"enable_order_caching": cfg.Features.EnableOrderCaching,
			"enable_events":        cfg.Features.EnableEvents,
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
