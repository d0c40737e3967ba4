package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront-api/internal/model"
	"github.com/flicky/go-storefront-api/internal/payment"
	"github.com/flicky/go-storefront-api/internal/repository"
)

type mockUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) List(_ context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockUserRepo) UpdateRole(_ context.Context, id uuid.UUID, role string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	u.Role = role
	u.TokenVersion++
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

type mockProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
	// conflicts makes the next n SaveReviews calls fail with a version conflict.
	conflicts int
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (m *mockProductRepo) clone(p *model.Product) *model.Product {
	cp := *p
	cp.Reviews = append([]model.Review(nil), p.Reviews...)
	return &cp
}

func (m *mockProductRepo) Create(_ context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.New()
	p.Version = 1
	m.products[p.ID] = m.clone(p)
	return nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return m.clone(p), nil
}

func (m *mockProductRepo) List(_ context.Context) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, *m.clone(p))
	}
	return out, nil
}

func (m *mockProductRepo) Update(_ context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	p.Version++
	m.products[p.ID] = m.clone(p)
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepo) SaveReviews(_ context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.products[p.ID]
	if !ok || stored.Version != p.Version {
		return repository.ErrVersionConflict
	}
	if m.conflicts > 0 {
		m.conflicts--
		return repository.ErrVersionConflict
	}
	p.Version++
	m.products[p.ID] = m.clone(p)
	return nil
}

func (m *mockProductRepo) DecrementStock(_ context.Context, id uuid.UUID, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok {
		p.CountInStock = max(p.CountInStock-qty, 0)
	}
	return nil
}

// mockLineItemRepo backs both carts and wishlists.
type mockLineItemRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]model.LineItems
}

func newMockLineItemRepo() *mockLineItemRepo {
	return &mockLineItemRepo{items: make(map[uuid.UUID]model.LineItems)}
}

func (m *mockLineItemRepo) get(userID uuid.UUID) (model.LineItems, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items, ok := m.items[userID]
	return append(model.LineItems(nil), items...), ok
}

func (m *mockLineItemRepo) mutate(userID uuid.UUID, fn repository.MutateFunc) (model.LineItems, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := append(model.LineItems{}, m.items[userID]...)
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if next == nil {
		next = model.LineItems{}
	}
	m.items[userID] = next
	return append(model.LineItems(nil), next...), nil
}

func (m *mockLineItemRepo) delete(userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, userID)
}

type mockCartRepo struct{ *mockLineItemRepo }

func newMockCartRepo() *mockCartRepo { return &mockCartRepo{newMockLineItemRepo()} }

func (m *mockCartRepo) Get(_ context.Context, userID uuid.UUID) (*model.Cart, error) {
	items, ok := m.get(userID)
	if !ok {
		return nil, nil
	}
	return &model.Cart{UserID: userID, Items: items}, nil
}

func (m *mockCartRepo) Mutate(_ context.Context, userID uuid.UUID, fn repository.MutateFunc) (*model.Cart, error) {
	items, err := m.mutate(userID, fn)
	if err != nil {
		return nil, err
	}
	return &model.Cart{UserID: userID, Items: items}, nil
}

func (m *mockCartRepo) Delete(_ context.Context, userID uuid.UUID) error {
	m.delete(userID)
	return nil
}

type mockWishlistRepo struct{ *mockLineItemRepo }

func newMockWishlistRepo() *mockWishlistRepo { return &mockWishlistRepo{newMockLineItemRepo()} }

func (m *mockWishlistRepo) Get(_ context.Context, userID uuid.UUID) (*model.Wishlist, error) {
	items, ok := m.get(userID)
	if !ok {
		return nil, nil
	}
	return &model.Wishlist{UserID: userID, Items: items}, nil
}

func (m *mockWishlistRepo) Mutate(_ context.Context, userID uuid.UUID, fn repository.MutateFunc) (*model.Wishlist, error) {
	items, err := m.mutate(userID, fn)
	if err != nil {
		return nil, err
	}
	return &model.Wishlist{UserID: userID, Items: items}, nil
}

func (m *mockWishlistRepo) Delete(_ context.Context, userID uuid.UUID) error {
	m.delete(userID)
	return nil
}

type mockOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*model.Order
	// beforeUpdate runs once inside the next UpdateStatus, before the version check.
	beforeUpdate func(stored *model.Order)
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func cloneOrder(o *model.Order) *model.Order {
	cp := *o
	cp.Items = append(model.LineItems(nil), o.Items...)
	if o.PaymentResult != nil {
		pr := *o.PaymentResult
		cp.PaymentResult = &pr
	}
	return &cp
}

func (m *mockOrderRepo) Create(_ context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = uuid.New()
	o.Version = 1
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	m.orders[o.ID] = cloneOrder(o)
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	return cloneOrder(o), nil
}

func (m *mockOrderRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *cloneOrder(o))
		}
	}
	return out, nil
}

func (m *mockOrderRepo) ListAll(_ context.Context) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, *cloneOrder(o))
	}
	return out, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[o.ID]
	if !ok {
		return repository.ErrVersionConflict
	}
	if hook := m.beforeUpdate; hook != nil {
		m.beforeUpdate = nil
		hook(stored)
	}
	if stored.Version != o.Version {
		return repository.ErrVersionConflict
	}
	o.Version++
	o.UpdatedAt = time.Now()
	next := cloneOrder(o)
	next.Items = stored.Items
	m.orders[o.ID] = next
	return nil
}

type mockPublisher struct {
	mu       sync.Mutex
	messages []model.OrderMessage
	err      error
}

func (p *mockPublisher) PublishOrderPaid(_ context.Context, msg model.OrderMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *mockPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

type fakeProcessor struct {
	intentErr   error
	amounts     []int64
	metadata    map[string]string
	event       payment.Event
	parseErr    error
	parseCalled int
}

func (f *fakeProcessor) CreateIntent(_ context.Context, amountMinor int64, _ string, metadata map[string]string) (payment.Intent, error) {
	if f.intentErr != nil {
		return payment.Intent{}, f.intentErr
	}
	f.amounts = append(f.amounts, amountMinor)
	f.metadata = metadata
	return payment.Intent{ID: "pi_test", ClientSecret: "pi_test_secret"}, nil
}

func (f *fakeProcessor) ParseEvent(_ []byte, _ string) (payment.Event, error) {
	f.parseCalled++
	if f.parseErr != nil {
		return payment.Event{}, f.parseErr
	}
	return f.event, nil
}
