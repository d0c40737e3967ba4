package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront-api/internal/dto"
	"github.com/flicky/go-storefront-api/internal/middleware"
	"github.com/flicky/go-storefront-api/internal/service"
)

type WishlistHandler struct {
	wishlistService *service.WishlistService
}

func NewWishlistHandler(wishlistService *service.WishlistService) *WishlistHandler {
	return &WishlistHandler{wishlistService: wishlistService}
}

func (h *WishlistHandler) Get(c *gin.Context) {
	resp, err := h.wishlistService.Get(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *WishlistHandler) AddItem(c *gin.Context) {
	var req dto.AddWishlistItemRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.wishlistService.AddItem(c.Request.Context(), middleware.GetUserID(c), req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *WishlistHandler) RemoveItem(c *gin.Context) {
	productID, ok := parseID(c, "productId", "product")
	if !ok {
		return
	}

	resp, err := h.wishlistService.RemoveItem(c.Request.Context(), middleware.GetUserID(c), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *WishlistHandler) Clear(c *gin.Context) {
	if err := h.wishlistService.Clear(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "wishlist cleared"})
}
