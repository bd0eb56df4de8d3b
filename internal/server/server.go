package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tm-acme-shop/acme-shop-orders-users/internal/clients"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/config"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/logging"
)

type Server struct {
	config     *config.Config
	router     *gin.Engine
	httpServer *http.Server
	logger     *logging.LoggerV2
}

func newServer(cfg *config.Config, health *handlers.HealthHandlers) *Server {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		handlers.RequestID(),
		handlers.RequestLogger(cfg.Service),
		handlers.Metrics(cfg.Service),
	)

	health.RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Server{
		config: cfg,
		router: router,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		logger: logging.NewLoggerV2("server"),
	}
}

// NewOrdersServer builds the order service. Every order route requires a
// token accepted by userClient.
func NewOrdersServer(
	cfg *config.Config,
	orderHandlers *handlers.OrderHandlers,
	health *handlers.HealthHandlers,
	userClient clients.UserClient,
) *Server {
	s := newServer(cfg, health)
	orderHandlers.RegisterRoutes(s.router, handlers.Authenticate(userClient))
	return s
}

// NewUsersServer builds the user service.
func NewUsersServer(cfg *config.Config, userHandlers *handlers.UserHandlers, health *handlers.HealthHandlers) *Server {
	s := newServer(cfg, health)
	userHandlers.RegisterRoutes(s.router)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Starting server", logging.Fields{
		"service": s.config.Service,
		"addr":    s.httpServer.Addr,
	})
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
