package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-orders-users/internal/logging"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/models"
)

// CreateOrder handles POST /orders
func (h *OrderHandlers) CreateOrder(c *gin.Context) {
	var req models.OrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithContext(c.Request.Context()).Warn("Failed to bind request", logging.Fields{"error": err.Error()})
		handleBindError(c, err)
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	h.logger.WithContext(c.Request.Context()).Info("Order created", logging.Fields{"order_id": order.ID})
	c.JSON(http.StatusOK, order)
}

// GetOrder handles GET /orders/:id
func (h *OrderHandlers) GetOrder(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID, currentUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListOrders handles GET /orders
func (h *OrderHandlers) ListOrders(c *gin.Context) {
	orders, err := h.orderService.ListOrders(c.Request.Context(), currentUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  len(orders),
	})
}

// UpdateOrder handles PUT /orders/:id
func (h *OrderHandlers) UpdateOrder(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req models.OrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	order, err := h.orderService.UpdateOrder(c.Request.Context(), orderID, currentUserID(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	h.logger.WithContext(c.Request.Context()).Info("Order updated", logging.Fields{"order_id": order.ID})
	c.JSON(http.StatusOK, order)
}

// DeleteOrder handles DELETE /orders/:id
func (h *OrderHandlers) DeleteOrder(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := h.orderService.DeleteOrder(c.Request.Context(), orderID, currentUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}

	h.logger.WithContext(c.Request.Context()).Info("Order deleted", logging.Fields{"order_id": order.ID})
	c.JSON(http.StatusOK, order)
}

func orderIDParam(c *gin.Context) (int64, bool) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || orderID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidID})
		return 0, false
	}
	return orderID, true
}
