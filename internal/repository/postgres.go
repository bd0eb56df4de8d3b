package repository

import (
	"context"
	"database/sql"

	"github.com/tm-acme-shop/acme-shop-orders-users/internal/errors"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/logging"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/models"
)

const orderColumns = "id, user_id, product, quantity, status"

// PostgresOrderRepository implements OrderRepository over database/sql. The
// queries are also valid SQLite.
type PostgresOrderRepository struct {
	db     *sql.DB
	logger *logging.LoggerV2
}

// NewPostgresOrderRepository creates a new order repository.
func NewPostgresOrderRepository(db *Database, logger *logging.LoggerV2) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		db:     db.db,
		logger: logger,
	}
}

// Create inserts a pending order for userID.
func (r *PostgresOrderRepository) Create(ctx context.Context, userID int64, in *models.OrderInput) (*models.Order, error) {
	log := r.logger.WithContext(ctx)
	log.Debug("Creating new order", logging.Fields{"user_id": userID})

	order := &models.Order{
		UserID:   userID,
		Product:  in.Product,
		Quantity: in.Quantity,
		Status:   models.OrderStatusPending,
	}

	query := `
		INSERT INTO orders (user_id, product, quantity, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query, order.UserID, order.Product, order.Quantity, order.Status).Scan(&order.ID)
	if err != nil {
		log.Error("Order creation failed", logging.Fields{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, err
	}

	log.Info("Order created", logging.Fields{
		"order_id": order.ID,
		"user_id":  order.UserID,
	})

	return order, nil
}

// GetByID retrieves an order regardless of owner.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	log := r.logger.WithContext(ctx)

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		log.Error("Failed to fetch order", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return nil, err
	}

	log.Info("Order fetched", logging.Fields{
		"order_id": id,
		"user_id":  order.UserID,
	})
	return order, nil
}

// ListByUserID returns the user's orders, oldest first.
func (r *PostgresOrderRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	log := r.logger.WithContext(ctx)

	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("Failed to list orders", logging.Fields{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, err
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.Info("Fetched user orders", logging.Fields{
		"user_id": userID,
		"count":   len(orders),
	})
	return orders, nil
}

// Update replaces product and quantity. Status is left as is.
func (r *PostgresOrderRepository) Update(ctx context.Context, id, userID int64, in *models.OrderInput) (*models.Order, error) {
	log := r.logger.WithContext(ctx)

	query := `
		UPDATE orders
		SET product = $3, quantity = $4
		WHERE id = $1 AND user_id = $2
		RETURNING ` + orderColumns

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id, userID, in.Product, in.Quantity))
	if err == sql.ErrNoRows {
		log.Warn("Order update failed: not found or not owned", logging.Fields{
			"order_id": id,
			"user_id":  userID,
		})
		return nil, errors.ErrNotFound
	}
	if err != nil {
		log.Error("Failed to update order", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return nil, err
	}

	log.Info("Order updated", logging.Fields{
		"order_id": id,
		"user_id":  userID,
	})
	return order, nil
}

// Delete removes the order and returns the removed row.
func (r *PostgresOrderRepository) Delete(ctx context.Context, id, userID int64) (*models.Order, error) {
	log := r.logger.WithContext(ctx)

	query := `DELETE FROM orders WHERE id = $1 AND user_id = $2 RETURNING ` + orderColumns

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		log.Warn("Order deletion failed: not found or not owned", logging.Fields{
			"order_id": id,
			"user_id":  userID,
		})
		return nil, errors.ErrNotFound
	}
	if err != nil {
		log.Error("Failed to delete order", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return nil, err
	}

	log.Info("Order deleted", logging.Fields{
		"order_id": id,
		"user_id":  userID,
	})
	return order, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	if err := row.Scan(&order.ID, &order.UserID, &order.Product, &order.Quantity, &order.Status); err != nil {
		return nil, err
	}
	return &order, nil
}
