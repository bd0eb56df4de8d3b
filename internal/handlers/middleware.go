package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tm-acme-shop/acme-shop-orders-users/internal/auth"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/clients"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/logging"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/metrics"
)

// ContextKeyUserID is the gin context key holding the authenticated user id.
const ContextKeyUserID = "user_id"

// RequestID tags each request with an id, reusing the caller's X-Request-ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(clients.HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Header(clients.HeaderRequestID, requestID)
		c.Request = c.Request.WithContext(logging.ContextWithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// RequestLogger logs the start and completion of every request.
func RequestLogger(service string) gin.HandlerFunc {
	logger := logging.NewLoggerV2(service)

	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path

		logger.WithContext(c.Request.Context()).Info("Incoming request", logging.Fields{
			"method": method,
			"path":   path,
		})

		c.Next()

		// c.Request carries the user id once Authenticate has run
		logger.WithContext(c.Request.Context()).Info("Request completed", logging.Fields{
			"method":      method,
			"path":        path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}
}

// Metrics records request counts and latencies per route.
func Metrics(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		handler := c.FullPath()
		if handler == "" {
			handler = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(service, handler, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(service, handler, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Authenticate resolves the bearer token through the users service and
// stores the caller's id under ContextKeyUserID. Requests without a bearer
// token are rejected without contacting the users service.
func Authenticate(userClient clients.UserClient) gin.HandlerFunc {
	logger := logging.NewLoggerV2("auth-middleware")

	return func(c *gin.Context) {
		token, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, msgNotAuthenticated)
			return
		}

		identity, err := userClient.ValidateToken(c.Request.Context(), token)
		if err != nil {
			abortUnauthorized(c, msgInvalidToken)
			return
		}

		userID, err := strconv.ParseInt(identity.ID, 10, 64)
		if err != nil {
			logger.WithContext(c.Request.Context()).Warn("Token subject is not a user id", logging.Fields{
				auth.LogFieldTokenPrefix: auth.TokenPrefix(token),
			})
			abortUnauthorized(c, msgInvalidToken)
			return
		}

		c.Set(ContextKeyUserID, userID)
		c.Request = c.Request.WithContext(logging.ContextWithUserID(c.Request.Context(), identity.ID))
		c.Next()
	}
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(ContextKeyUserID)
}
