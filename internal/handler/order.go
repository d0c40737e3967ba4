package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront-api/internal/dto"
	"github.com/flicky/go-storefront-api/internal/middleware"
	"github.com/flicky/go-storefront-api/internal/model"
	"github.com/flicky/go-storefront-api/internal/service"
)

const maxWebhookBytes = 1 << 20

type OrderHandler struct {
	orderService   *service.OrderService
	paymentService *service.PaymentService
}

func NewOrderHandler(orderService *service.OrderService, paymentService *service.PaymentService) *OrderHandler {
	return &OrderHandler{orderService: orderService, paymentService: paymentService}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, service.ToOrderResponse(order))
}

func (h *OrderHandler) MyOrders(c *gin.Context) {
	orders, err := h.orderService.ListByUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.ToOrderListResponse(orders))
}

func (h *OrderHandler) ListAll(c *gin.Context) {
	orders, err := h.orderService.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.ToOrderListResponse(orders))
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := parseID(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), orderID, middleware.GetUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.ToOrderResponse(order))
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, ok := parseID(c, "id", "order")
	if !ok {
		return
	}
	var req dto.UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.SetStatuses(c.Request.Context(), orderID, req.PaymentStatus, req.OrderStatus)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.ToOrderResponse(order))
}

// Pay records a payment confirmed by the client. Only the owner or an admin
// may confirm.
func (h *OrderHandler) Pay(c *gin.Context) {
	orderID, ok := parseID(c, "id", "order")
	if !ok {
		return
	}
	var req dto.PayOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.orderService.GetByID(ctx, orderID, middleware.GetUser(c)); err != nil {
		respondError(c, err)
		return
	}

	order, err := h.orderService.MarkPaid(ctx, orderID, model.PaymentResult{
		ID:           req.ID,
		Status:       req.Status,
		UpdateTime:   req.UpdateTime,
		EmailAddress: req.EmailAddress,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.ToOrderResponse(order))
}

// Webhook needs the raw body for signature verification, so it reads the
// request itself instead of binding.
func (h *OrderHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "webhook payload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if err := h.paymentService.Reconcile(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
