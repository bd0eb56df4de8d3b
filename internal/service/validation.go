package service

import (
	"unicode/utf8"

	"github.com/tm-acme-shop/acme-shop-orders-users/internal/errors"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/models"
)

// ValidateOrderInput normalizes in and checks it can be stored.
func ValidateOrderInput(in *models.OrderInput) error {
	if in == nil {
		return errors.NewValidationError("body", "request body is required")
	}

	in.Normalize()

	if in.Product == "" {
		return errors.NewValidationError("product", "product is required")
	}

	if utf8.RuneCountInString(in.Product) > models.MaxProductLength {
		return errors.NewValidationError("product", "product must be at most 255 characters")
	}

	if in.Quantity <= 0 {
		return errors.NewValidationError("quantity", "quantity must be positive")
	}

	return nil
}
