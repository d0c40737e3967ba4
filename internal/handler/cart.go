package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront-api/internal/dto"
	"github.com/flicky/go-storefront-api/internal/middleware"
	"github.com/flicky/go-storefront-api/internal/service"
)

type CartHandler struct {
	cartService *service.CartService
}

func NewCartHandler(cartService *service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	resp, err := h.cartService.Get(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddCartItemRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.cartService.AddItem(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	productID, ok := parseID(c, "productId", "product")
	if !ok {
		return
	}
	var req dto.UpdateCartItemRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.cartService.UpdateItem(c.Request.Context(), middleware.GetUserID(c), productID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID, ok := parseID(c, "productId", "product")
	if !ok {
		return
	}

	resp, err := h.cartService.RemoveItem(c.Request.Context(), middleware.GetUserID(c), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.cartService.Clear(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
}
