package models

import "strings"

const (
	OrderStatusPending = "pending"

	MaxProductLength = 255
)

// Order is a row of the orders table. UserID is the identity asserted by the
// token verified when the order was created.
type Order struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
	Status   string `json:"status"`
}

// OrderInput is the body of order create and update requests.
type OrderInput struct {
	Product  string `json:"product" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

// Normalize trims surrounding whitespace from the product name.
func (in *OrderInput) Normalize() {
	in.Product = strings.TrimSpace(in.Product)
}
