package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront-api/internal/dto"
	"github.com/flicky/go-storefront-api/internal/middleware"
	"github.com/flicky/go-storefront-api/internal/service"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
}

func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	var req dto.CreatePaymentIntentRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.paymentService.CreateIntent(c.Request.Context(), middleware.GetUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
