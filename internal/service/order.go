package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront-api/internal/dto"
	"github.com/flicky/go-storefront-api/internal/model"
	"github.com/flicky/go-storefront-api/internal/repository"
)

const maxStatusRetries = 5

// OrderEventPublisher announces paid orders to the fulfillment queue.
type OrderEventPublisher interface {
	PublishOrderPaid(ctx context.Context, msg model.OrderMessage) error
}

type OrderService struct {
	orderRepo repository.OrderRepository
	publisher OrderEventPublisher
	logger    *slog.Logger
}

// NewOrderService accepts a nil publisher, in which case paid orders are not queued.
func NewOrderService(orderRepo repository.OrderRepository, publisher OrderEventPublisher, logger *slog.Logger) *OrderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{orderRepo: orderRepo, publisher: publisher, logger: logger}
}

func (s *OrderService) Create(ctx context.Context, userID uuid.UUID, req dto.CreateOrderRequest) (*model.Order, error) {
	if len(req.OrderItems) == 0 {
		return nil, fmt.Errorf("no order items: %w", ErrInvalidOrder)
	}

	items := make(model.LineItems, 0, len(req.OrderItems))
	for _, it := range req.OrderItems {
		if it.ProductID == uuid.Nil {
			return nil, fmt.Errorf("order item without product: %w", ErrInvalidOrder)
		}
		if it.Quantity < 1 {
			return nil, fmt.Errorf("quantity must be at least 1: %w", ErrInvalidOrder)
		}
		if !model.ValidPrice(it.Price) {
			return nil, fmt.Errorf("price must be non-negative with at most two decimals: %w", ErrInvalidOrder)
		}
		items = append(items, model.LineItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Image:     it.Image,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}

	address := model.ShippingAddress{
		FullName:   strings.TrimSpace(req.ShippingAddress.FullName),
		Address:    strings.TrimSpace(req.ShippingAddress.Address),
		City:       strings.TrimSpace(req.ShippingAddress.City),
		PostalCode: strings.TrimSpace(req.ShippingAddress.PostalCode),
		Country:    strings.TrimSpace(req.ShippingAddress.Country),
	}
	if !address.Complete() {
		return nil, fmt.Errorf("incomplete shipping address: %w", ErrInvalidOrder)
	}
	method := strings.TrimSpace(req.PaymentMethod)
	if method == "" {
		return nil, fmt.Errorf("payment method required: %w", ErrInvalidOrder)
	}

	total := items.Total()
	if !req.TotalPrice.IsZero() && !req.TotalPrice.Equal(total) {
		return nil, fmt.Errorf("total %s does not match items %s: %w", req.TotalPrice, total, ErrInvalidOrder)
	}

	order := &model.Order{
		UserID:          userID,
		Items:           items,
		ShippingAddress: address,
		PaymentMethod:   method,
		PaymentStatus:   model.PaymentStatusPending,
		OrderStatus:     model.OrderStatusPending,
		TotalPrice:      total,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

// GetByID returns the order if user owns it or is an admin.
func (s *OrderService) GetByID(ctx context.Context, orderID uuid.UUID, user *model.User) (*model.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() && order.UserID != user.ID {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

func (s *OrderService) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) ListAll(ctx context.Context) ([]model.Order, error) {
	orders, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// MarkPaid records a successful payment. Repeating it with the same
// processor id returns the stored order unchanged.
func (s *OrderService) MarkPaid(ctx context.Context, orderID uuid.UUID, result model.PaymentResult) (*model.Order, error) {
	if strings.TrimSpace(result.ID) == "" {
		return nil, invalidInput("payment result id required")
	}

	var transitioned bool
	order, err := s.transition(ctx, orderID, func(o *model.Order) (bool, error) {
		transitioned = false
		if o.PaymentStatus == model.PaymentStatusPaid {
			if o.PaymentResult != nil && o.PaymentResult.ID == result.ID {
				return false, nil
			}
			return false, ErrPaymentConflict
		}
		paid := result
		o.PaymentStatus = model.PaymentStatusPaid
		o.PaymentResult = &paid
		transitioned = true
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if transitioned && s.publisher != nil {
		msg := model.OrderMessage{OrderID: order.ID, UserID: order.UserID}
		if err := s.publisher.PublishOrderPaid(ctx, msg); err != nil {
			s.logger.Error("failed to publish order.paid", "order_id", order.ID, "error", err)
		}
	}
	return order, nil
}

// MarkFailed flags a failed payment. Paid orders are left untouched.
func (s *OrderService) MarkFailed(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	return s.transition(ctx, orderID, func(o *model.Order) (bool, error) {
		if o.PaymentStatus == model.PaymentStatusPaid || o.PaymentStatus == model.PaymentStatusFailed {
			return false, nil
		}
		o.PaymentStatus = model.PaymentStatusFailed
		return true, nil
	})
}

// SetStatuses applies an admin override. Any move between known values is allowed.
func (s *OrderService) SetStatuses(ctx context.Context, orderID uuid.UUID, paymentStatus *model.PaymentStatus, orderStatus *model.OrderStatus) (*model.Order, error) {
	if paymentStatus == nil && orderStatus == nil {
		return nil, invalidInput("payment_status or order_status required")
	}
	if paymentStatus != nil && !paymentStatus.Valid() {
		return nil, invalidInput("unknown payment status %q", *paymentStatus)
	}
	if orderStatus != nil && !orderStatus.Valid() {
		return nil, invalidInput("unknown order status %q", *orderStatus)
	}

	return s.transition(ctx, orderID, func(o *model.Order) (bool, error) {
		changed := false
		if paymentStatus != nil && o.PaymentStatus != *paymentStatus {
			o.PaymentStatus = *paymentStatus
			changed = true
		}
		if orderStatus != nil && o.OrderStatus != *orderStatus {
			o.OrderStatus = *orderStatus
			changed = true
		}
		return changed, nil
	})
}

// transition loads the order, applies fn and writes it back with a version
// check, reloading on conflict. fn reports whether anything changed.
func (s *OrderService) transition(ctx context.Context, orderID uuid.UUID, fn func(o *model.Order) (bool, error)) (*model.Order, error) {
	for attempt := 0; attempt < maxStatusRetries; attempt++ {
		order, err := s.load(ctx, orderID)
		if err != nil {
			return nil, err
		}
		changed, err := fn(order)
		if err != nil {
			return nil, err
		}
		if !changed {
			return order, nil
		}

		err = s.orderRepo.UpdateStatus(ctx, order)
		if errors.Is(err, repository.ErrVersionConflict) {
			s.logger.Debug("order version conflict, retrying", "order_id", orderID, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update order: %w", err)
		}
		return order, nil
	}
	return nil, ErrConcurrentUpdate
}

func (s *OrderService) load(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func ToOrderResponse(o *model.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:         o.ID,
		UserID:     o.UserID,
		OrderItems: toLineItemResponses(o.Items),
		ShippingAddress: dto.ShippingAddress{
			FullName:   o.ShippingAddress.FullName,
			Address:    o.ShippingAddress.Address,
			City:       o.ShippingAddress.City,
			PostalCode: o.ShippingAddress.PostalCode,
			Country:    o.ShippingAddress.Country,
		},
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		OrderStatus:   o.OrderStatus,
		TotalPrice:    o.TotalPrice,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.PaymentResult != nil {
		resp.PaymentResult = &dto.PaymentResultResponse{
			ID:           o.PaymentResult.ID,
			Status:       o.PaymentResult.Status,
			UpdateTime:   o.PaymentResult.UpdateTime,
			EmailAddress: o.PaymentResult.EmailAddress,
		}
	}
	return resp
}

func ToOrderListResponse(orders []model.Order) dto.OrderListResponse {
	out := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, ToOrderResponse(&orders[i]))
	}
	return dto.OrderListResponse{Orders: out, Total: len(out)}
}
