package handlers

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-orders-users/internal/errors"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/models"
)

type mockOrderService struct {
	orders map[int64]*models.Order
	nextID int64
	err    error
}

func newMockOrderService() *mockOrderService {
	return &mockOrderService{orders: make(map[int64]*models.Order)}
}

func (m *mockOrderService) CreateOrder(ctx context.Context, userID int64, in *models.OrderInput) (*models.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	in.Normalize()
	if in.Product == "" {
		return nil, errors.NewValidationError("product", "product is required")
	}
	m.nextID++
	order := &models.Order{ID: m.nextID, UserID: userID, Product: in.Product, Quantity: in.Quantity, Status: models.OrderStatusPending}
	m.orders[order.ID] = order
	return order, nil
}

func (m *mockOrderService) GetOrder(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	order, ok := m.orders[orderID]
	if !ok || order.UserID != userID {
		return nil, errors.ErrNotFound
	}
	return order, nil
}

func (m *mockOrderService) ListOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]*models.Order, 0)
	for id := int64(1); id <= m.nextID; id++ {
		if o, ok := m.orders[id]; ok && o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderService) UpdateOrder(ctx context.Context, orderID, userID int64, in *models.OrderInput) (*models.Order, error) {
	order, ok := m.orders[orderID]
	if !ok || order.UserID != userID {
		return nil, errors.ErrNotFound
	}
	updated := *order
	updated.Product = in.Product
	updated.Quantity = in.Quantity
	m.orders[orderID] = &updated
	return &updated, nil
}

func (m *mockOrderService) DeleteOrder(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	order, ok := m.orders[orderID]
	if !ok || order.UserID != userID {
		return nil, errors.ErrNotFound
	}
	delete(m.orders, orderID)
	return order, nil
}

type mockUserService struct {
	users  map[string]int64
	tokens map[string]string
}

func newMockUserService() *mockUserService {
	return &mockUserService{
		users:  make(map[string]int64),
		tokens: map[string]string{"good-token": "7"},
	}
}

func (m *mockUserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	req.Normalize()
	if _, ok := m.users[req.Email]; ok {
		return nil, errors.ErrEmailTaken
	}
	id := int64(len(m.users) + 1)
	m.users[req.Email] = id
	return &models.User{ID: id, Email: req.Email}, nil
}

func (m *mockUserService) IssueToken(ctx context.Context, req *models.TokenRequest) (*models.TokenResponse, error) {
	if req.Password != "password-1" {
		return nil, errors.ErrUnauthorized
	}
	return &models.TokenResponse{AccessToken: "good-token", TokenType: "bearer", ExpiresIn: 1800}, nil
}

func (m *mockUserService) VerifyToken(ctx context.Context, token string) (*models.Identity, error) {
	id, ok := m.tokens[token]
	if !ok {
		return nil, errors.ErrUnauthorized
	}
	return &models.Identity{ID: id}, nil
}

type mockUserClient struct {
	identities map[string]string
	calls      int
	lastToken  string
}

func (m *mockUserClient) ValidateToken(ctx context.Context, token string) (*models.Identity, error) {
	m.calls++
	m.lastToken = token
	id, ok := m.identities[token]
	if !ok {
		return nil, errors.ErrUnauthorized
	}
	return &models.Identity{ID: id}, nil
}

type mockPinger struct {
	err error
}

func (m mockPinger) Ping(ctx context.Context) error {
	return m.err
}
