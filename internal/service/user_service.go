package service

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-orders-users/internal/auth"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/config"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/errors"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/events"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/logging"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/models"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/repository"
)

// UserService registers accounts and issues and verifies their tokens.
type UserService struct {
	userRepo       repository.UserRepository
	tokens         *auth.TokenManager
	eventPublisher events.UserPublisher
	config         *config.Config
	logger         *logging.LoggerV2
}

func NewUserService(
	userRepo repository.UserRepository,
	tokens *auth.TokenManager,
	eventPublisher events.UserPublisher,
	cfg *config.Config,
) *UserService {
	return &UserService{
		userRepo:       userRepo,
		tokens:         tokens,
		eventPublisher: eventPublisher,
		config:         cfg,
		logger:         logging.NewLoggerV2("user-service"),
	}
}

// Register creates an account. A taken email yields errors.ErrEmailTaken.
func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	req.Normalize()

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.Create(ctx, req.Email, hash)
	if err != nil {
		return nil, err
	}
	metrics.UsersRegisteredTotal.Inc()

	s.logger.WithContext(ctx).Info("User registered", logging.Fields{"user_id": user.ID})

	if s.config.Features.EnableEvents {
		if err := s.eventPublisher.PublishUserRegistered(ctx, user); err != nil {
			s.logger.WithContext(ctx).Error("Failed to publish user registered event", logging.Fields{
				"user_id": user.ID,
				"error":   err.Error(),
			})
		}
	}

	return user, nil
}

// IssueToken exchanges credentials for a signed token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *UserService) IssueToken(ctx context.Context, req *models.TokenRequest) (*models.TokenResponse, error) {
	log := s.logger.WithContext(ctx)
	req.Normalize()

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if errors.Is(err, errors.ErrNotFound) {
		log.Warn("Token request rejected: unknown email")
		return nil, errors.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		log.Warn("Token request rejected: bad password", logging.Fields{"user_id": user.ID})
		return nil, errors.ErrUnauthorized
	}

	token, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		log.Error("Failed to sign token", logging.Fields{
			"user_id": user.ID,
			"error":   err.Error(),
		})
		return nil, err
	}

	log.Info("Token issued", logging.Fields{"user_id": user.ID})

	return &models.TokenResponse{
		AccessToken: token,
		TokenType:   auth.TokenType,
		ExpiresIn:   int64(s.config.Auth.TokenTTL.Seconds()),
	}, nil
}

// VerifyToken returns the identity asserted by token.
func (s *UserService) VerifyToken(ctx context.Context, token string) (*models.Identity, error) {
	identity, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.WithContext(ctx).Warn("Token verification failed")
		return nil, err
	}
	return identity, nil
}
