package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-orders-users/internal/logging"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers reports on the stores a service depends on.
type HealthHandlers struct {
	service string
	db      Pinger
	cache   Pinger
	logger  *logging.LoggerV2
}

func NewHealthHandlers(service string, db Pinger) *HealthHandlers {
	return &HealthHandlers{
		service: service,
		db:      db,
		logger:  logging.NewLoggerV2("health"),
	}
}

// WithCache adds the order cache to the health check.
func (h *HealthHandlers) WithCache(cache Pinger) *HealthHandlers {
	h.cache = cache
	return h
}

// Health handles GET /health
func (h *HealthHandlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.WithContext(ctx).Error("Health check: DB failed", logging.Fields{"error": err.Error()})
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "DB unavailable"})
		return
	}

	resp := gin.H{
		"status": "ok",
		"db":     "connected",
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			h.logger.WithContext(ctx).Error("Health check: cache failed", logging.Fields{"error": err.Error()})
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Cache unavailable"})
			return
		}
		resp["cache"] = "connected"
	}

	h.logger.WithContext(ctx).Debug("Health check: DB connected")
	c.JSON(http.StatusOK, resp)
}

// Live handles GET /live
func (h *HealthHandlers) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "alive",
		"service": h.service,
	})
}
