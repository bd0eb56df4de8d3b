package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-orders-users/internal/auth"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/clients"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/config"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/events"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/logging"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/models"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/repository"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stack struct {
	users  *httptest.Server
	orders *httptest.Server
}

func openDatabase(t *testing.T) *repository.Database {
	t.Helper()

	ctx := context.Background()
	db, err := repository.Open(ctx, config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.EnsureSchema(ctx))
	t.Cleanup(func() { db.Close() })
	return db
}

func newStack(t *testing.T) *stack {
	t.Helper()
	logger := logging.NewLoggerV2("server-test")

	usersCfg := config.Load(config.ServiceUsers)
	usersCfg.Auth = config.AuthConfig{SecretKey: "integration-secret", Algorithm: "HS256", TokenTTL: 30 * time.Minute}

	tokens, err := auth.NewTokenManager(usersCfg.Auth)
	require.NoError(t, err)

	usersDB := openDatabase(t)
	userService := service.NewUserService(repository.NewPostgresUserRepository(usersDB, logger), tokens, events.NopPublisher{}, usersCfg)
	usersSrv := NewUsersServer(usersCfg, handlers.NewUserHandlers(userService), handlers.NewHealthHandlers(usersCfg.Service, usersDB))
	users := httptest.NewServer(usersSrv.Handler())
	t.Cleanup(users.Close)

	ordersCfg := config.Load(config.ServiceOrders)
	ordersCfg.UserService = config.ServiceConfig{
		BaseURL:       users.URL,
		Timeout:       time.Second,
		RetryAttempts: 3,
		RetryDelay:    10 * time.Millisecond,
	}

	ordersDB := openDatabase(t)
	orderService := service.NewOrderService(repository.NewPostgresOrderRepository(ordersDB, logger), nil, events.NopPublisher{}, ordersCfg)
	ordersSrv := NewOrdersServer(
		ordersCfg,
		handlers.NewOrderHandlers(orderService),
		handlers.NewHealthHandlers(ordersCfg.Service, ordersDB),
		clients.NewHTTPUserClient(ordersCfg.UserService, logger),
	)
	orders := httptest.NewServer(ordersSrv.Handler())
	t.Cleanup(orders.Close)

	return &stack{users: users, orders: orders}
}

func call(t *testing.T, method, url, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func (s *stack) signUp(t *testing.T, email string) (int64, string) {
	t.Helper()

	resp, body := call(t, http.MethodPost, s.users.URL+"/users/register", "", models.RegisterRequest{Email: email, Password: "password-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var registered models.RegisterResponse
	require.NoError(t, json.Unmarshal(body, &registered))

	resp, body = call(t, http.MethodPost, s.users.URL+"/token", "", models.TokenRequest{Email: email, Password: "password-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var token models.TokenResponse
	require.NoError(t, json.Unmarshal(body, &token))
	assert.Equal(t, "bearer", token.TokenType)
	assert.Equal(t, int64(1800), token.ExpiresIn)

	return registered.ID, token.AccessToken
}

func TestOrdersAndUsers_EndToEnd(t *testing.T) {
	s := newStack(t)

	aliceID, aliceToken := s.signUp(t, "alice@example.com")
	_, bobToken := s.signUp(t, "bob@example.com")

	resp, body := call(t, http.MethodPost, s.users.URL+"/verify-token", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":"`+strconv.FormatInt(aliceID, 10)+`"}`, string(body))

	resp, body = call(t, http.MethodPost, s.orders.URL+"/orders/", aliceToken, models.OrderInput{Product: "widget", Quantity: 2})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var created models.Order
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, models.Order{ID: created.ID, UserID: aliceID, Product: "widget", Quantity: 2, Status: "pending"}, created)

	resp, body = call(t, http.MethodGet, s.orders.URL+"/orders/"+strconv.FormatInt(created.ID, 10), aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.Order
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, created, fetched)

	orderURL := s.orders.URL + "/orders/" + strconv.FormatInt(created.ID, 10)

	resp, body = call(t, http.MethodPut, orderURL, bobToken, models.OrderInput{Product: "gadget", Quantity: 9})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"not found"}`, string(body))

	resp, _ = call(t, http.MethodDelete, orderURL, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = call(t, http.MethodGet, orderURL, aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, created, fetched)

	resp, _ = call(t, http.MethodDelete, orderURL, aliceToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = call(t, http.MethodGet, orderURL, aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOrders_RejectsForgedToken(t *testing.T) {
	s := newStack(t)

	forged, _, err := mustTokenManager(t, "other-secret").Issue(1)
	require.NoError(t, err)

	resp, body := call(t, http.MethodPost, s.orders.URL+"/orders/", forged, models.OrderInput{Product: "widget", Quantity: 2})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Invalid authentication credentials"}`, string(body))

	resp, _ = call(t, http.MethodPost, s.orders.URL+"/orders/", "", models.OrderInput{Product: "widget", Quantity: 2})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOrders_UsersServiceDown(t *testing.T) {
	s := newStack(t)
	_, token := s.signUp(t, "carol@example.com")

	s.users.Close()

	resp, _ := call(t, http.MethodPost, s.orders.URL+"/orders/", token, models.OrderInput{Product: "widget", Quantity: 2})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newStack(t)

	for _, base := range []string{s.users.URL, s.orders.URL} {
		resp, body := call(t, http.MethodGet, base+"/health", "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"status":"ok","db":"connected"}`, string(body))

		resp, _ = call(t, http.MethodGet, base+"/metrics", "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func mustTokenManager(t *testing.T, secret string) *auth.TokenManager {
	t.Helper()

	tokens, err := auth.NewTokenManager(config.AuthConfig{SecretKey: secret, Algorithm: "HS256", TokenTTL: time.Minute})
	require.NoError(t, err)
	return tokens
}
