package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/tm-acme-shop/acme-shop-orders-users/internal/auth"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/config"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/errors"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/logging"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/models"
)

const HeaderRequestID = "X-Request-ID"

// UserClient resolves bearer tokens to identities through the users service.
type UserClient interface {
	ValidateToken(ctx context.Context, token string) (*models.Identity, error)
}

var _ UserClient = (*HTTPUserClient)(nil)

// HTTPUserClient implements UserClient using HTTP.
type HTTPUserClient struct {
	baseURL    string
	httpClient *http.Client
	attempts   uint
	delay      time.Duration
	logger     *logging.LoggerV2
}

// NewHTTPUserClient creates a new HTTP-based user client.
func NewHTTPUserClient(cfg config.ServiceConfig, logger *logging.LoggerV2) *HTTPUserClient {
	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &HTTPUserClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		attempts: uint(attempts),
		delay:    cfg.RetryDelay,
		logger:   logger,
	}
}

// statusError is an unsuccessful verify-token response.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("user service returned status %d", e.code)
}

// ValidateToken asks the users service who token belongs to. Transport
// failures and 5xx/429 responses are retried with a fixed delay; any other
// rejection fails on the first attempt. Every failure is reported as
// errors.ErrUnauthorized.
func (c *HTTPUserClient) ValidateToken(ctx context.Context, token string) (*models.Identity, error) {
	log := c.logger.WithContext(ctx).WithFields(logging.Fields{
		auth.LogFieldTokenPrefix: auth.TokenPrefix(token),
	})

	var identity *models.Identity
	err := retry.Do(
		func() error {
			id, err := c.verify(ctx, token)
			if err != nil {
				return err
			}
			identity = id
			return nil
		},
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("User validation attempt failed", logging.Fields{
				"attempt": n + 1,
				"error":   err.Error(),
			})
		}),
	)
	if err != nil {
		log.Error("User validation failed", logging.Fields{"error": err.Error()})
		return nil, errors.ErrUnauthorized
	}

	log.Info("User validated", logging.Fields{"user_id": identity.ID})
	return identity, nil
}

func (c *HTTPUserClient) verify(ctx context.Context, token string) (*models.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify-token", nil)
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}
	c.setHeaders(ctx, req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.TokenVerificationAttempts.WithLabelValues("error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		outcome := "rejected"
		if isRetryable(&statusError{code: resp.StatusCode}) {
			outcome = "error"
		}
		metrics.TokenVerificationAttempts.WithLabelValues(outcome).Inc()
		return nil, &statusError{code: resp.StatusCode}
	}

	var identity models.Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		metrics.TokenVerificationAttempts.WithLabelValues("error").Inc()
		return nil, retry.Unrecoverable(fmt.Errorf("decoding verify-token response: %w", err))
	}
	if identity.ID == "" {
		metrics.TokenVerificationAttempts.WithLabelValues("error").Inc()
		return nil, retry.Unrecoverable(fmt.Errorf("verify-token response has no id"))
	}

	metrics.TokenVerificationAttempts.WithLabelValues("success").Inc()
	return &identity, nil
}

func (c *HTTPUserClient) setHeaders(ctx context.Context, req *http.Request, token string) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	if requestID := logging.RequestIDFromContext(ctx); requestID != "" {
		req.Header.Set(HeaderRequestID, requestID)
	}
}

// isRetryable is the whole retry policy: retry.RetryIf replaces the
// library's own Unrecoverable check.
func isRetryable(err error) bool {
	if !retry.IsRecoverable(err) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= http.StatusInternalServerError || se.code == http.StatusTooManyRequests
	}
	return true
}
