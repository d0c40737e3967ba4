package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/go-storefront-api/internal/dto"
	"github.com/flicky/go-storefront-api/internal/model"
	"github.com/flicky/go-storefront-api/internal/repository"
)

const (
	productCacheTTL  = 60 * time.Second
	maxReviewRetries = 3
)

// ProductCacheKey is shared with the order worker, which invalidates it after stock changes.
func ProductCacheKey(id uuid.UUID) string { return "product:" + id.String() }

type ProductService struct {
	productRepo repository.ProductRepository
	redisClient *redis.Client
	now         func() time.Time
}

func NewProductService(productRepo repository.ProductRepository, redisClient *redis.Client) *ProductService {
	return &ProductService{productRepo: productRepo, redisClient: redisClient, now: time.Now}
}

func (s *ProductService) Create(ctx context.Context, adminID uuid.UUID, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if !model.ValidPrice(req.Price) {
		return nil, invalidInput("price must be non-negative with at most two decimals")
	}
	image := strings.TrimSpace(req.Image)
	if image == "" {
		image = model.DefaultProductImage
	}
	product := &model.Product{
		UserID:       adminID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Category:     req.Category,
		Brand:        req.Brand,
		CountInStock: req.CountInStock,
		Image:        image,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	cacheKey := ProductCacheKey(id)

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var resp dto.ProductResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return &resp, nil
			}
		}
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	resp := ToProductResponse(product)

	if s.redisClient != nil {
		if data, err := json.Marshal(resp); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, productCacheTTL)
		}
	}

	return &resp, nil
}

func (s *ProductService) List(ctx context.Context) (*dto.ProductListResponse, error) {
	products, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, ToProductResponse(&products[i]))
	}
	return &dto.ProductListResponse{Products: items, Total: len(items)}, nil
}

func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		if !model.ValidPrice(*req.Price) {
			return nil, invalidInput("price must be non-negative with at most two decimals")
		}
		product.Price = *req.Price
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Brand != nil {
		product.Brand = *req.Brand
	}
	if req.CountInStock != nil {
		product.CountInStock = *req.CountInStock
	}
	if req.Image != nil && *req.Image != "" {
		product.Image = *req.Image
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.invalidateCache(ctx, id)
	resp := ToProductResponse(product)
	return &resp, nil
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidateCache(ctx, id)
	return nil
}

// AddReview appends a review by user and recomputes the aggregate rating.
// A user may review a product once.
func (s *ProductService) AddReview(ctx context.Context, productID uuid.UUID, user *model.User, req dto.CreateReviewRequest) (*model.Product, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, invalidInput("rating must be between 1 and 5")
	}
	return s.mutateReviews(ctx, productID, func(p *model.Product) error {
		if p.ReviewedBy(user.ID) {
			return ErrAlreadyReviewed
		}
		p.Reviews = append(p.Reviews, model.Review{
			ID:        uuid.New(),
			UserID:    user.ID,
			Name:      user.Name,
			Rating:    req.Rating,
			Comment:   req.Comment,
			CreatedAt: s.now().UTC(),
		})
		return nil
	})
}

func (s *ProductService) DeleteReview(ctx context.Context, productID, reviewID uuid.UUID) (*model.Product, error) {
	return s.mutateReviews(ctx, productID, func(p *model.Product) error {
		kept := p.Reviews[:0:0]
		for _, r := range p.Reviews {
			if r.ID != reviewID {
				kept = append(kept, r)
			}
		}
		if len(kept) == len(p.Reviews) {
			return ErrReviewNotFound
		}
		p.Reviews = kept
		return nil
	})
}

func (s *ProductService) mutateReviews(ctx context.Context, productID uuid.UUID, fn func(p *model.Product) error) (*model.Product, error) {
	for attempt := 0; attempt < maxReviewRetries; attempt++ {
		product, err := s.productRepo.GetByID(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}
		if product == nil {
			return nil, ErrProductNotFound
		}
		if err := fn(product); err != nil {
			return nil, err
		}
		product.RecomputeRating()

		err = s.productRepo.SaveReviews(ctx, product)
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("save reviews: %w", err)
		}
		s.invalidateCache(ctx, productID)
		return product, nil
	}
	return nil, ErrConcurrentUpdate
}

func (s *ProductService) invalidateCache(ctx context.Context, id uuid.UUID) {
	if s.redisClient != nil {
		s.redisClient.Del(ctx, ProductCacheKey(id))
	}
}

func ToProductResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:           p.ID,
		UserID:       p.UserID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		Category:     p.Category,
		Brand:        p.Brand,
		CountInStock: p.CountInStock,
		Image:        p.Image,
		Rating:       p.Rating,
		NumReviews:   p.NumReviews,
		Reviews:      ToReviewResponses(p.Reviews),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func ToReviewResponses(reviews []model.Review) []dto.ReviewResponse {
	out := make([]dto.ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, dto.ReviewResponse{
			ID: r.ID, UserID: r.UserID, Name: r.Name,
			Rating: r.Rating, Comment: r.Comment, CreatedAt: r.CreatedAt,
		})
	}
	return out
}
