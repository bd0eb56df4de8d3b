package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-orders-users/internal/logging"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/models"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/service"
)

// OrderService is the order behaviour the HTTP layer depends on.
type OrderService interface {
	CreateOrder(ctx context.Context, userID int64, in *models.OrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, orderID, userID int64) (*models.Order, error)
	ListOrders(ctx context.Context, userID int64) ([]*models.Order, error)
	UpdateOrder(ctx context.Context, orderID, userID int64, in *models.OrderInput) (*models.Order, error)
	DeleteOrder(ctx context.Context, orderID, userID int64) (*models.Order, error)
}

// UserService is the account and token behaviour the HTTP layer depends on.
type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	IssueToken(ctx context.Context, req *models.TokenRequest) (*models.TokenResponse, error)
	VerifyToken(ctx context.Context, token string) (*models.Identity, error)
}

var (
	_ OrderService = (*service.OrderService)(nil)
	_ UserService  = (*service.UserService)(nil)
)

// OrderHandlers holds the order service HTTP handlers.
type OrderHandlers struct {
	orderService OrderService
	logger       *logging.LoggerV2
}

func NewOrderHandlers(orderService OrderService) *OrderHandlers {
	return &OrderHandlers{
		orderService: orderService,
		logger:       logging.NewLoggerV2("order-handlers"),
	}
}

// UserHandlers holds the user service HTTP handlers.
type UserHandlers struct {
	userService UserService
	logger      *logging.LoggerV2
}

func NewUserHandlers(userService UserService) *UserHandlers {
	return &UserHandlers{
		userService: userService,
		logger:      logging.NewLoggerV2("user-handlers"),
	}
}

// RegisterRoutes mounts the order endpoints behind authenticate.
func (h *OrderHandlers) RegisterRoutes(r gin.IRouter, authenticate gin.HandlerFunc) {
	orders := r.Group("/orders", authenticate)
	{
		orders.POST("", h.CreateOrder)
		orders.POST("/", h.CreateOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.PUT("/:id", h.UpdateOrder)
		orders.DELETE("/:id", h.DeleteOrder)
	}
}

// RegisterRoutes mounts the account and token endpoints.
func (h *UserHandlers) RegisterRoutes(r gin.IRouter) {
	r.POST("/users/register", h.Register)
	r.POST("/token", h.IssueToken)
	r.POST("/verify-token", h.VerifyToken)
}

func (h *HealthHandlers) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.Health)
	r.GET("/live", h.Live)
}
