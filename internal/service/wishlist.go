package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront-api/internal/dto"
	"github.com/flicky/go-storefront-api/internal/model"
	"github.com/flicky/go-storefront-api/internal/repository"
)

type WishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
}

func NewWishlistService(wishlistRepo repository.WishlistRepository, productRepo repository.ProductRepository) *WishlistService {
	return &WishlistService{wishlistRepo: wishlistRepo, productRepo: productRepo}
}

func (s *WishlistService) Get(ctx context.Context, userID uuid.UUID) (*dto.WishlistResponse, error) {
	wishlist, err := s.wishlistRepo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get wishlist: %w", err)
	}
	if wishlist == nil {
		wishlist = &model.Wishlist{UserID: userID}
	}
	return toWishlistResponse(wishlist), nil
}

// AddItem stores a product once. Wishlist lines always carry quantity 1.
func (s *WishlistService) AddItem(ctx context.Context, userID, productID uuid.UUID) (*dto.WishlistResponse, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	wishlist, err := s.wishlistRepo.Mutate(ctx, userID, func(items model.LineItems) (model.LineItems, error) {
		if items.Find(productID) >= 0 {
			return nil, ErrWishlistDuplicate
		}
		return append(items, model.LineItem{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     product.Image,
			Quantity:  1,
			Price:     product.Price,
		}), nil
	})
	if err != nil {
		return nil, fmt.Errorf("add wishlist item: %w", err)
	}
	return toWishlistResponse(wishlist), nil
}

func (s *WishlistService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*dto.WishlistResponse, error) {
	wishlist, err := s.wishlistRepo.Mutate(ctx, userID, func(items model.LineItems) (model.LineItems, error) {
		return items.Remove(productID), nil
	})
	if err != nil {
		return nil, fmt.Errorf("remove wishlist item: %w", err)
	}
	return toWishlistResponse(wishlist), nil
}

func (s *WishlistService) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.wishlistRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("clear wishlist: %w", err)
	}
	return nil
}

func toWishlistResponse(w *model.Wishlist) *dto.WishlistResponse {
	return &dto.WishlistResponse{UserID: w.UserID, Items: toLineItemResponses(w.Items)}
}
