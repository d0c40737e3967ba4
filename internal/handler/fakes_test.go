package handler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront-api/internal/model"
	"github.com/flicky/go-storefront-api/internal/repository"
)

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) List(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memUsers) UpdateRole(_ context.Context, id uuid.UUID, role string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	u.Role = role
	u.TokenVersion++
	cp := *u
	return &cp, nil
}

func (m *memUsers) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

type memProducts struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
}

func (m *memProducts) Create(_ context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.New()
	p.Version = 1
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *memProducts) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok {
		cp := *p
		cp.Reviews = append([]model.Review(nil), p.Reviews...)
		return &cp, nil
	}
	return nil, nil
}

func (m *memProducts) List(_ context.Context) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Product
	for _, p := range m.products {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memProducts) Update(_ context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	p.Version++
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *memProducts) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *memProducts) SaveReviews(ctx context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.products[p.ID]
	if !ok || stored.Version != p.Version {
		return repository.ErrVersionConflict
	}
	p.Version++
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *memProducts) DecrementStock(_ context.Context, _ uuid.UUID, _ int) error { return nil }

type memLineItems struct {
	mu    sync.Mutex
	items map[uuid.UUID]model.LineItems
}

func (m *memLineItems) mutate(userID uuid.UUID, fn repository.MutateFunc) (model.LineItems, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, err := fn(append(model.LineItems{}, m.items[userID]...))
	if err != nil {
		return nil, err
	}
	m.items[userID] = next
	return next, nil
}

type memCarts struct{ memLineItems }

func (m *memCarts) Get(_ context.Context, userID uuid.UUID) (*model.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items, ok := m.items[userID]
	if !ok {
		return nil, nil
	}
	return &model.Cart{UserID: userID, Items: items}, nil
}

func (m *memCarts) Mutate(_ context.Context, userID uuid.UUID, fn repository.MutateFunc) (*model.Cart, error) {
	items, err := m.mutate(userID, fn)
	if err != nil {
		return nil, err
	}
	return &model.Cart{UserID: userID, Items: items}, nil
}

func (m *memCarts) Delete(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, userID)
	return nil
}

type memWishlists struct{ memLineItems }

func (m *memWishlists) Get(_ context.Context, userID uuid.UUID) (*model.Wishlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items, ok := m.items[userID]
	if !ok {
		return nil, nil
	}
	return &model.Wishlist{UserID: userID, Items: items}, nil
}

func (m *memWishlists) Mutate(_ context.Context, userID uuid.UUID, fn repository.MutateFunc) (*model.Wishlist, error) {
	items, err := m.mutate(userID, fn)
	if err != nil {
		return nil, err
	}
	return &model.Wishlist{UserID: userID, Items: items}, nil
}

func (m *memWishlists) Delete(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, userID)
	return nil
}

type memOrders struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*model.Order
}

func (m *memOrders) Create(_ context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = uuid.New()
	o.Version = 1
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *memOrders) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, nil
}

func (m *memOrders) ListByUserID(_ context.Context, userID uuid.UUID) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memOrders) ListAll(_ context.Context) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Order
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[o.ID]
	if !ok || stored.Version != o.Version {
		return repository.ErrVersionConflict
	}
	o.Version++
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}
