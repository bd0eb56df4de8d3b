package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/tm-acme-shop/acme-shop-orders-users/internal/errors"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/logging"
)

const (
	msgNotFound         = "not found"
	msgInvalidBody      = "invalid request body"
	msgInvalidID        = "invalid order ID"
	msgNotAuthenticated = "Not authenticated"
	msgInvalidToken     = "Invalid authentication credentials"
	msgEmailTaken       = "Email already registered"
	msgInternal         = "internal server error"
)

// handleError writes the response for an error returned by a service.
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
		return
	case errors.Is(err, errors.ErrUnauthorized):
		abortUnauthorized(c, msgInvalidToken)
		return
	case errors.Is(err, errors.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgEmailTaken})
		return
	}

	var validationErr *errors.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   validationErr.Message,
			"details": validationErr.Details,
		})
		return
	}

	logging.NewLoggerV2("handlers").WithContext(c.Request.Context()).Error("Request failed", logging.Fields{
		"path":  c.FullPath(),
		"error": err.Error(),
	})
	c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
}

// handleBindError writes a 400 for a body that could not be bound. Field
// level failures are reported per JSON field.
func handleBindError(c *gin.Context, err error) {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		details := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			details[jsonFieldName(fe.Field())] = describeFieldError(fe)
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": details,
		})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidBody})
}

func abortUnauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// jsonFieldName maps a Go struct field name to the lower-case JSON key used
// by every request model.
func jsonFieldName(field string) string {
	return strings.ToLower(field)
}
