package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/tm-acme-shop/acme-shop-orders-users/internal/errors"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/models"
)

// Mock helpers for testing
type MockOrderRepository struct {
	mu        sync.Mutex
	orders    map[int64]*models.Order
	nextID    int64
	createErr error
	gets      int
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{orders: make(map[int64]*models.Order)}
}

func (m *MockOrderRepository) Create(ctx context.Context, userID int64, in *models.OrderInput) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextID++
	order := &models.Order{ID: m.nextID, UserID: userID, Product: in.Product, Quantity: in.Quantity, Status: models.OrderStatusPending}
	m.orders[order.ID] = order
	copied := *order
	return &copied, nil
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	order, ok := m.orders[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *MockOrderRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Order, 0)
	for id := int64(1); id <= m.nextID; id++ {
		if o, ok := m.orders[id]; ok && o.UserID == userID {
			copied := *o
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MockOrderRepository) Update(ctx context.Context, id, userID int64, in *models.OrderInput) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok || order.UserID != userID {
		return nil, errors.ErrNotFound
	}
	order.Product = in.Product
	order.Quantity = in.Quantity
	copied := *order
	return &copied, nil
}

func (m *MockOrderRepository) Delete(ctx context.Context, id, userID int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok || order.UserID != userID {
		return nil, errors.ErrNotFound
	}
	delete(m.orders, id)
	return order, nil
}

type MockOrderCache struct {
	orders  map[int64]*models.Order
	deleted []int64
}

func NewMockOrderCache() *MockOrderCache {
	return &MockOrderCache{orders: make(map[int64]*models.Order)}
}

func (c *MockOrderCache) Get(ctx context.Context, id int64) (*models.Order, error) {
	return c.orders[id], nil
}

func (c *MockOrderCache) Set(ctx context.Context, order *models.Order) error {
	c.orders[order.ID] = order
	return nil
}

func (c *MockOrderCache) Delete(ctx context.Context, id int64) error {
	delete(c.orders, id)
	c.deleted = append(c.deleted, id)
	return nil
}

type MockEventPublisher struct {
	Events []string
	Err    error
}

func (p *MockEventPublisher) record(kind string, id int64) error {
	p.Events = append(p.Events, fmt.Sprintf("%s:%d", kind, id))
	return p.Err
}

func (p *MockEventPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	return p.record("order.created", order.ID)
}

func (p *MockEventPublisher) PublishOrderUpdated(ctx context.Context, order *models.Order) error {
	return p.record("order.updated", order.ID)
}

func (p *MockEventPublisher) PublishOrderDeleted(ctx context.Context, order *models.Order) error {
	return p.record("order.deleted", order.ID)
}

func (p *MockEventPublisher) PublishUserRegistered(ctx context.Context, user *models.User) error {
	return p.record("user.registered", user.ID)
}

type MockUserRepository struct {
	users  map[string]*models.User
	nextID int64
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*models.User)}
}

func (m *MockUserRepository) Create(ctx context.Context, email, passwordHash string) (*models.User, error) {
	if _, ok := m.users[email]; ok {
		return nil, errors.ErrEmailTaken
	}
	m.nextID++
	user := &models.User{ID: m.nextID, Email: email, PasswordHash: passwordHash}
	m.users[email] = user
	return user, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := m.users[email]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return user, nil
}
