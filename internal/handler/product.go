package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront-api/internal/dto"
	"github.com/flicky/go-storefront-api/internal/middleware"
	"github.com/flicky/go-storefront-api/internal/model"
	"github.com/flicky/go-storefront-api/internal/service"
)

type ProductHandler struct {
	productService *service.ProductService
}

func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.productService.Create(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	resp, err := h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) List(c *gin.Context) {
	resp, err := h.productService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "product")
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.productService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	if err := h.productService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) AddReview(c *gin.Context) {
	id, ok := parseID(c, "id", "product")
	if !ok {
		return
	}
	var req dto.CreateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.AddReview(c.Request.Context(), id, middleware.GetUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reviewsResponse("review added", product))
}

func (h *ProductHandler) DeleteReview(c *gin.Context) {
	id, ok := parseID(c, "id", "product")
	if !ok {
		return
	}
	reviewID, ok := parseID(c, "reviewId", "review")
	if !ok {
		return
	}

	product, err := h.productService.DeleteReview(c.Request.Context(), id, reviewID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviewsResponse("review removed", product))
}

func reviewsResponse(message string, p *model.Product) dto.ReviewsResponse {
	return dto.ReviewsResponse{
		Message:    message,
		Rating:     p.Rating,
		NumReviews: p.NumReviews,
		Reviews:    service.ToReviewResponses(p.Reviews),
	}
}
