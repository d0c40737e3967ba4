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

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	// SaveReviews writes reviews and the aggregate rating if product.Version is still current.
	SaveReviews(ctx context.Context, product *model.Product) error
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error
}

type pgProductRepo struct{ pool *pgxpool.Pool }

func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &pgProductRepo{pool: pool}
}

const productColumns = `id, user_id, name, description, price, category, brand, count_in_stock, image,
	reviews, rating, num_reviews, version, created_at, updated_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	p := &model.Product{}
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Brand,
		&p.CountInStock, &p.Image, &p.Reviews, &p.Rating, &p.NumReviews, &p.Version,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func reviewsOrEmpty(reviews []model.Review) []model.Review {
	if reviews == nil {
		return []model.Review{}
	}
	return reviews
}

func (r *pgProductRepo) Create(ctx context.Context, product *model.Product) error {
	product.ID = uuid.New()
	product.Version = 1
	query := `INSERT INTO products (id, user_id, name, description, price, category, brand, count_in_stock, image,
				reviews, rating, num_reviews, version, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1, NOW(), NOW())
			  RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.ID, product.UserID, product.Name, product.Description, product.Price,
		product.Category, product.Brand, product.CountInStock, product.Image,
		reviewsOrEmpty(product.Reviews), product.Rating, product.NumReviews,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *pgProductRepo) List(ctx context.Context) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *pgProductRepo) Update(ctx context.Context, product *model.Product) error {
	query := `UPDATE products SET name=$2, description=$3, price=$4, category=$5, brand=$6,
				count_in_stock=$7, image=$8, version=version+1, updated_at=NOW()
			  WHERE id=$1 RETURNING version, updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.ID, product.Name, product.Description, product.Price,
		product.Category, product.Brand, product.CountInStock, product.Image,
	).Scan(&product.Version, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgProductRepo) SaveReviews(ctx context.Context, product *model.Product) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE products SET reviews=$2, rating=$3, num_reviews=$4, version=version+1, updated_at=NOW()
		 WHERE id=$1 AND version=$5 RETURNING version, updated_at`,
		product.ID, reviewsOrEmpty(product.Reviews), product.Rating, product.NumReviews, product.Version,
	).Scan(&product.Version, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrVersionConflict
		}
		return fmt.Errorf("save reviews: %w", err)
	}
	return nil
}

// DecrementStock lowers count_in_stock, never below zero.
func (r *pgProductRepo) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE products SET count_in_stock = GREATEST(count_in_stock - $2, 0), updated_at = NOW() WHERE id = $1`,
		productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	return nil
}
