package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/go-storefront-api/internal/model"
)

// MutateFunc receives the current items and returns the items to store.
// Returning an error aborts the write.
type MutateFunc func(items model.LineItems) (model.LineItems, error)

type CartRepository interface {
	// Get returns nil when the user has no cart.
	Get(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	// Mutate applies fn under a row lock. The cart is created only when fn
	// returns items for a user who has none.
	Mutate(ctx context.Context, userID uuid.UUID, fn MutateFunc) (*model.Cart, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

type WishlistRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*model.Wishlist, error)
	Mutate(ctx context.Context, userID uuid.UUID, fn MutateFunc) (*model.Wishlist, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

// lineItemDoc is the shared storage shape of carts and wishlists.
type lineItemDoc struct {
	userID    uuid.UUID
	items     model.LineItems
	createdAt time.Time
	updatedAt time.Time
}

type lineItemTable struct {
	pool  *pgxpool.Pool
	table string
}

func (t lineItemTable) get(ctx context.Context, userID uuid.UUID) (*lineItemDoc, error) {
	doc := &lineItemDoc{userID: userID}
	err := t.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT items, created_at, updated_at FROM %s WHERE user_id = $1`, t.table), userID,
	).Scan(&doc.items, &doc.createdAt, &doc.updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", t.table, err)
	}
	return doc, nil
}

func (t lineItemTable) mutate(ctx context.Context, userID uuid.UUID, fn MutateFunc) (*lineItemDoc, error) {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	doc, err := t.lock(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		// No document yet: only create one when fn has something to store.
		items, err := fn(model.LineItems{})
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return &lineItemDoc{userID: userID, items: model.LineItems{}}, nil
		}
		_, err = tx.Exec(ctx,
			fmt.Sprintf(`INSERT INTO %s (user_id, items, created_at, updated_at) VALUES ($1, '[]', NOW(), NOW())
				ON CONFLICT (user_id) DO NOTHING`, t.table), userID,
		)
		if err != nil {
			return nil, fmt.Errorf("ensure %s: %w", t.table, err)
		}
		if doc, err = t.lock(ctx, tx, userID); err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, fmt.Errorf("lock %s: %w", t.table, ErrNotFound)
		}
	}

	items, err := fn(doc.items)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = model.LineItems{}
	}

	err = tx.QueryRow(ctx,
		fmt.Sprintf(`UPDATE %s SET items = $2, updated_at = NOW() WHERE user_id = $1 RETURNING updated_at`, t.table),
		userID, items,
	).Scan(&doc.updatedAt)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", t.table, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	doc.items = items
	return doc, nil
}

// lock returns nil when the user has no document.
func (t lineItemTable) lock(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*lineItemDoc, error) {
	doc := &lineItemDoc{userID: userID}
	err := tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT items, created_at FROM %s WHERE user_id = $1 FOR UPDATE`, t.table), userID,
	).Scan(&doc.items, &doc.createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock %s: %w", t.table, err)
	}
	return doc, nil
}

func (t lineItemTable) delete(ctx context.Context, userID uuid.UUID) error {
	_, err := t.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, t.table), userID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.table, err)
	}
	return nil
}

type pgCartRepo struct{ t lineItemTable }

func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &pgCartRepo{t: lineItemTable{pool: pool, table: "carts"}}
}

func (d *lineItemDoc) cart() *model.Cart {
	return &model.Cart{UserID: d.userID, Items: d.items, CreatedAt: d.createdAt, UpdatedAt: d.updatedAt}
}

func (d *lineItemDoc) wishlist() *model.Wishlist {
	return &model.Wishlist{UserID: d.userID, Items: d.items, CreatedAt: d.createdAt, UpdatedAt: d.updatedAt}
}

func (r *pgCartRepo) Get(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	doc, err := r.t.get(ctx, userID)
	if err != nil || doc == nil {
		return nil, err
	}
	return doc.cart(), nil
}

func (r *pgCartRepo) Mutate(ctx context.Context, userID uuid.UUID, fn MutateFunc) (*model.Cart, error) {
	doc, err := r.t.mutate(ctx, userID, fn)
	if err != nil {
		return nil, err
	}
	return doc.cart(), nil
}

func (r *pgCartRepo) Delete(ctx context.Context, userID uuid.UUID) error {
	return r.t.delete(ctx, userID)
}

type pgWishlistRepo struct{ t lineItemTable }

func NewWishlistRepository(pool *pgxpool.Pool) WishlistRepository {
	return &pgWishlistRepo{t: lineItemTable{pool: pool, table: "wishlists"}}
}

func (r *pgWishlistRepo) Get(ctx context.Context, userID uuid.UUID) (*model.Wishlist, error) {
	doc, err := r.t.get(ctx, userID)
	if err != nil || doc == nil {
		return nil, err
	}
	return doc.wishlist(), nil
}

func (r *pgWishlistRepo) Mutate(ctx context.Context, userID uuid.UUID, fn MutateFunc) (*model.Wishlist, error) {
	doc, err := r.t.mutate(ctx, userID, fn)
	if err != nil {
		return nil, err
	}
	return doc.wishlist(), nil
}

func (r *pgWishlistRepo) Delete(ctx context.Context, userID uuid.UUID) error {
	return r.t.delete(ctx, userID)
}
