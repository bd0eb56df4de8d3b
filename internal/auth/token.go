// Package auth issues and verifies the signed tokens that assert a user id.
package auth

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tm-acme-shop/acme-shop-orders-users/internal/config"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/errors"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/models"
)

const (
	TokenType = "bearer"

	// LogFieldTokenPrefix is the log field carrying TokenPrefix output.
	LogFieldTokenPrefix = "token_prefix"

	tokenPrefixLen = 10
)

// TokenManager signs and verifies HMAC tokens with a process-wide secret.
type TokenManager struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(cfg config.AuthConfig) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("auth: empty secret key")
	}

	method := jwt.GetSigningMethod(cfg.Algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("auth: unsupported algorithm %q", cfg.Algorithm)
	}

	return &TokenManager{
		secret: []byte(cfg.SecretKey),
		method: method,
		ttl:    cfg.TokenTTL,
		now:    time.Now,
	}, nil
}

// Issue signs a token whose subject is userID.
func (m *TokenManager) Issue(userID int64) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks the signature, algorithm and expiry of token and returns its
// subject. Every rejection is errors.ErrUnauthorized.
func (m *TokenManager) Verify(token string) (*models.Identity, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{m.method.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, errors.ErrUnauthorized
	}

	if claims.Subject == "" {
		return nil, errors.ErrUnauthorized
	}

	return &models.Identity{ID: claims.Subject}, nil
}

// TokenPrefix returns the first characters of token for log lines.
func TokenPrefix(token string) string {
	if len(token) > tokenPrefixLen {
		token = token[:tokenPrefixLen]
	}
	return token + "..."
}

// BearerToken extracts the credential from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
