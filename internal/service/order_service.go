package service

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-orders-users/internal/config"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/errors"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/events"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/logging"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/models"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/repository"
)

// OrderService handles order business logic. Every method takes the user id
// asserted by an already verified token.
type OrderService struct {
	orderRepo      repository.OrderRepository
	orderCache     repository.OrderCache
	eventPublisher events.OrderPublisher
	config         *config.Config
	logger         *logging.LoggerV2
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	orderCache repository.OrderCache,
	eventPublisher events.OrderPublisher,
	cfg *config.Config,
) *OrderService {
	return &OrderService{
		orderRepo:      orderRepo,
		orderCache:     orderCache,
		eventPublisher: eventPublisher,
		config:         cfg,
		logger:         logging.NewLoggerV2("order-service"),
	}
}

// CreateOrder stores a pending order owned by userID.
func (s *OrderService) CreateOrder(ctx context.Context, userID int64, in *models.OrderInput) (*models.Order, error) {
	if err := ValidateOrderInput(in); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.Create(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	metrics.OrdersCreatedTotal.Inc()

	if s.config.Features.EnableEvents {
		if err := s.eventPublisher.PublishOrderCreated(ctx, order); err != nil {
			// Log but don't fail
			s.logger.WithContext(ctx).Error("Failed to publish order created event", logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}

	return order, nil
}

// GetOrder returns the order if userID owns it.
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != userID {
		s.logger.WithContext(ctx).Warn("Order fetch failed: not owned", logging.Fields{
			"order_id": orderID,
			"user_id":  userID,
		})
		return nil, errors.ErrNotFound
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	return s.orderRepo.ListByUserID(ctx, userID)
}

// UpdateOrder replaces product and quantity of an order owned by userID.
func (s *OrderService) UpdateOrder(ctx context.Context, orderID, userID int64, in *models.OrderInput) (*models.Order, error) {
	if err := ValidateOrderInput(in); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.Update(ctx, orderID, userID, in)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, orderID)

	if s.config.Features.EnableEvents {
		if err := s.eventPublisher.PublishOrderUpdated(ctx, order); err != nil {
			s.logger.WithContext(ctx).Error("Failed to publish order updated event", logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}

	return order, nil
}

// DeleteOrder removes an order owned by userID and returns it.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	order, err := s.orderRepo.Delete(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, orderID)

	if s.config.Features.EnableEvents {
		if err := s.eventPublisher.PublishOrderDeleted(ctx, order); err != nil {
			s.logger.WithContext(ctx).Error("Failed to publish order deleted event", logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}

	return order, nil
}

func (s *OrderService) loadOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	caching := s.config.Features.EnableOrderCaching && s.orderCache != nil

	if caching {
		cached, err := s.orderCache.Get(ctx, orderID)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if caching {
		if err := s.orderCache.Set(ctx, order); err != nil {
			s.logger.WithContext(ctx).Error("Failed to cache order", logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}
	return order, nil
}

func (s *OrderService) invalidate(ctx context.Context, orderID int64) {
	if !s.config.Features.EnableOrderCaching || s.orderCache == nil {
		return
	}
	if err := s.orderCache.Delete(ctx, orderID); err != nil {
		s.logger.WithContext(ctx).Error("Failed to invalidate cached order", logging.Fields{
			"order_id": orderID,
			"error":    err.Error(),
		})
	}
}
