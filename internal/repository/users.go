package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/tm-acme-shop/acme-shop-orders-users/internal/errors"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/logging"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/models"
)

// PostgresUserRepository implements UserRepository over database/sql.
type PostgresUserRepository struct {
	db     *sql.DB
	logger *logging.LoggerV2
}

func NewPostgresUserRepository(db *Database, logger *logging.LoggerV2) *PostgresUserRepository {
	return &PostgresUserRepository{
		db:     db.db,
		logger: logger,
	}
}

// Create inserts a user, returning errors.ErrEmailTaken when the email exists.
func (r *PostgresUserRepository) Create(ctx context.Context, email, passwordHash string) (*models.User, error) {
	log := r.logger.WithContext(ctx)

	user := &models.User{
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	query := `
		INSERT INTO users (email, password_hash, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO NOTHING
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query, user.Email, user.PasswordHash, user.CreatedAt).Scan(&user.ID)
	if err == sql.ErrNoRows {
		log.Warn("User registration rejected: email exists")
		return nil, errors.ErrEmailTaken
	}
	if err != nil {
		log.Error("Failed to create user", logging.Fields{"error": err.Error()})
		return nil, err
	}

	log.Info("User created", logging.Fields{"user_id": user.ID})
	return user, nil
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, password_hash, created_at FROM users WHERE email = $1`

	var user models.User
	err := r.db.QueryRowContext(ctx, query, email).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		r.logger.WithContext(ctx).Error("Failed to fetch user", logging.Fields{"error": err.Error()})
		return nil, err
	}
	return &user, nil
}
