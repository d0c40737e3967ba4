package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/go-storefront-api/internal/model"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
	// UpdateStatus writes payment status, payment result and order status
	// only if order.Version matches the stored version. On success order.Version
	// is advanced; otherwise ErrVersionConflict is returned.
	UpdateStatus(ctx context.Context, order *model.Order) error
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

const orderColumns = `id, user_id, items, shipping_address, payment_method, payment_status, order_status,
	total_price, payment_result, version, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	o := &model.Order{}
	err := row.Scan(
		&o.ID, &o.UserID, &o.Items, &o.ShippingAddress, &o.PaymentMethod, &o.PaymentStatus,
		&o.OrderStatus, &o.TotalPrice, &o.PaymentResult, &o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *pgOrderRepo) Create(ctx context.Context, order *model.Order) error {
	order.ID = uuid.New()
	order.Version = 1
	err := r.pool.QueryRow(ctx,
		`INSERT INTO orders (id, user_id, items, shipping_address, payment_method, payment_status, order_status,
			total_price, payment_result, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, NOW(), NOW()) RETURNING created_at, updated_at`,
		order.ID, order.UserID, order.Items, order.ShippingAddress, order.PaymentMethod,
		order.PaymentStatus, order.OrderStatus, order.TotalPrice, order.PaymentResult,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

func (r *pgOrderRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return r.list(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *pgOrderRepo) ListAll(ctx context.Context) ([]model.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (r *pgOrderRepo) list(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *pgOrderRepo) UpdateStatus(ctx context.Context, order *model.Order) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE orders SET payment_status = $2, payment_result = $3, order_status = $4,
			version = version + 1, updated_at = NOW()
		 WHERE id = $1 AND version = $5 RETURNING version, updated_at`,
		order.ID, order.PaymentStatus, order.PaymentResult, order.OrderStatus, order.Version,
	).Scan(&order.Version, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrVersionConflict
		}
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}
