package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront-api/internal/dto"
	"github.com/flicky/go-storefront-api/internal/model"
	"github.com/flicky/go-storefront-api/internal/repository"
)

type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo}
}

// Get returns the user's cart. A user without a stored cart gets an empty one.
func (s *CartService) Get(ctx context.Context, userID uuid.UUID) (*dto.CartResponse, error) {
	cart, err := s.cartRepo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart == nil {
		cart = &model.Cart{UserID: userID}
	}
	return toCartResponse(cart), nil
}

// AddItem merges quantity into an existing line for the same product.
// The existing line keeps its price.
func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, req dto.AddCartItemRequest) (*dto.CartResponse, error) {
	if req.Quantity < 1 {
		return nil, invalidInput("quantity must be at least 1")
	}
	if !model.ValidPrice(req.Price) {
		return nil, invalidInput("price must be non-negative with at most two decimals")
	}
	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	price := req.Price
	if price.IsZero() {
		price = product.Price
	}

	cart, err := s.cartRepo.Mutate(ctx, userID, func(items model.LineItems) (model.LineItems, error) {
		if i := items.Find(product.ID); i >= 0 {
			items[i].Quantity += req.Quantity
			return items, nil
		}
		return append(items, model.LineItem{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     product.Image,
			Quantity:  req.Quantity,
			Price:     price,
		}), nil
	})
	if err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	return toCartResponse(cart), nil
}

func (s *CartService) UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*dto.CartResponse, error) {
	if quantity < 1 {
		return nil, invalidInput("quantity must be at least 1")
	}
	cart, err := s.cartRepo.Mutate(ctx, userID, func(items model.LineItems) (model.LineItems, error) {
		i := items.Find(productID)
		if i < 0 {
			return nil, ErrCartItemNotFound
		}
		items[i].Quantity = quantity
		return items, nil
	})
	if err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	return toCartResponse(cart), nil
}

// RemoveItem is a no-op for products not in the cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*dto.CartResponse, error) {
	cart, err := s.cartRepo.Mutate(ctx, userID, func(items model.LineItems) (model.LineItems, error) {
		return items.Remove(productID), nil
	})
	if err != nil {
		return nil, fmt.Errorf("remove cart item: %w", err)
	}
	return toCartResponse(cart), nil
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.cartRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func toCartResponse(cart *model.Cart) *dto.CartResponse {
	return &dto.CartResponse{
		UserID: cart.UserID,
		Items:  toLineItemResponses(cart.Items),
		Total:  cart.Items.Total(),
	}
}

func toLineItemResponses(items model.LineItems) []dto.LineItemResponse {
	out := make([]dto.LineItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.LineItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Image:     it.Image,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return out
}
