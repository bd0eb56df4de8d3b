package repository

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-orders-users/internal/models"
)

var (
	_ OrderRepository = (*PostgresOrderRepository)(nil)
	_ UserRepository  = (*PostgresUserRepository)(nil)
	_ OrderCache      = (*RedisOrderCache)(nil)
)

// OrderRepository persists orders. Update and Delete match on both the order
// id and the owning user id; a mismatch on either yields errors.ErrNotFound.
type OrderRepository interface {
	Create(ctx context.Context, userID int64, in *models.OrderInput) (*models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.Order, error)
	Update(ctx context.Context, id, userID int64, in *models.OrderInput) (*models.Order, error)
	Delete(ctx context.Context, id, userID int64) (*models.Order, error)
}

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, email, passwordHash string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// OrderCache defines caching operations for orders.
type OrderCache interface {
	Get(ctx context.Context, id int64) (*models.Order, error)
	Set(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id int64) error
}
