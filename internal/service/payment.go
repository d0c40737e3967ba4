package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/flicky/go-storefront-api/internal/dto"
	"github.com/flicky/go-storefront-api/internal/model"
	"github.com/flicky/go-storefront-api/internal/payment"
)

const (
	eventDedupeTTL   = 24 * time.Hour
	orderMetadataKey = "orderId"
)

var webhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "storefront_webhook_events_total",
	Help: "Processor webhook events by type and outcome.",
}, []string{"type", "outcome"})

type PaymentService struct {
	orders      *OrderService
	processor   payment.Processor
	redisClient *redis.Client
	currency    string
	markFailed  bool
	logger      *slog.Logger
	now         func() time.Time
}

// NewPaymentService accepts a nil processor, in which case every payment
// operation reports ErrPaymentDisabled.
func NewPaymentService(orders *OrderService, processor payment.Processor, redisClient *redis.Client, currency string, markFailed bool, logger *slog.Logger) *PaymentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentService{
		orders:      orders,
		processor:   processor,
		redisClient: redisClient,
		currency:    currency,
		markFailed:  markFailed,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *PaymentService) CreateIntent(ctx context.Context, user *model.User, req dto.CreatePaymentIntentRequest) (*dto.PaymentIntentResponse, error) {
	if s.processor == nil {
		return nil, ErrPaymentDisabled
	}
	order, err := s.orders.GetByID(ctx, req.OrderID, user)
	if err != nil {
		return nil, err
	}

	amount := order.TotalPrice
	if !req.Amount.IsZero() && !req.Amount.Equal(order.TotalPrice) {
		return nil, invalidInput("amount %s does not match order total %s", req.Amount, order.TotalPrice)
	}
	minor := ToMinorUnits(amount)
	if minor <= 0 {
		return nil, invalidInput("amount must be positive")
	}

	intent, err := s.processor.CreateIntent(ctx, minor, s.currency, map[string]string{
		orderMetadataKey: order.ID.String(),
	})
	if err != nil {
		var pe *payment.ProviderError
		if errors.As(err, &pe) {
			return nil, fmt.Errorf("%s: %w", pe.Message, ErrPaymentProvider)
		}
		return nil, fmt.Errorf("create intent: %v: %w", err, ErrPaymentProvider)
	}

	s.logger.Info("payment intent created", "order_id", order.ID, "intent_id", intent.ID, "amount", minor)
	return &dto.PaymentIntentResponse{ClientSecret: intent.ClientSecret}, nil
}

// Reconcile verifies and applies a processor webhook. Events that cannot be
// matched to an order are accepted and logged so the processor stops retrying.
func (s *PaymentService) Reconcile(ctx context.Context, payload []byte, signature string) error {
	if s.processor == nil {
		return ErrPaymentDisabled
	}
	evt, err := s.processor.ParseEvent(payload, signature)
	if err != nil {
		webhookEvents.WithLabelValues("unknown", "rejected").Inc()
		if errors.Is(err, payment.ErrInvalidSignature) {
			return fmt.Errorf("%v: %w", err, ErrInvalidSignature)
		}
		return invalidInput("malformed event: %v", err)
	}

	if s.seen(ctx, evt.ID) {
		webhookEvents.WithLabelValues(evt.Type, "duplicate").Inc()
		return nil
	}

	outcome, err := s.apply(ctx, evt)
	if err != nil {
		webhookEvents.WithLabelValues(evt.Type, "error").Inc()
		return err
	}
	webhookEvents.WithLabelValues(evt.Type, outcome).Inc()
	s.remember(ctx, evt.ID)
	return nil
}

func (s *PaymentService) apply(ctx context.Context, evt payment.Event) (string, error) {
	switch evt.Type {
	case payment.EventPaymentSucceeded, payment.EventPaymentFailed:
	default:
		return "ignored", nil
	}

	orderID, err := uuid.Parse(evt.Metadata[orderMetadataKey])
	if err != nil {
		s.logger.Warn("webhook event without order reference", "event_id", evt.ID, "intent_id", evt.PaymentIntentID)
		return "unmatched", nil
	}

	if evt.Type == payment.EventPaymentFailed {
		s.logger.Warn("payment failed", "event_id", evt.ID, "order_id", orderID, "intent_id", evt.PaymentIntentID)
		if !s.markFailed {
			return "logged", nil
		}
		_, err = s.orders.MarkFailed(ctx, orderID)
	} else {
		_, err = s.orders.MarkPaid(ctx, orderID, model.PaymentResult{
			ID:           evt.PaymentIntentID,
			Status:       evt.Status,
			UpdateTime:   s.now().UTC().Format(time.RFC3339),
			EmailAddress: evt.ReceiptEmail,
		})
	}

	switch {
	case errors.Is(err, ErrOrderNotFound):
		s.logger.Warn("webhook references unknown order", "event_id", evt.ID, "order_id", orderID)
		return "unmatched", nil
	case errors.Is(err, ErrPaymentConflict):
		s.logger.Error("order already paid by another intent", "event_id", evt.ID, "order_id", orderID, "intent_id", evt.PaymentIntentID)
		return "conflict", nil
	case err != nil:
		return "", fmt.Errorf("apply %s: %w", evt.Type, err)
	}
	s.logger.Info("webhook applied", "event_id", evt.ID, "type", evt.Type, "order_id", orderID)
	return "applied", nil
}

func (s *PaymentService) seen(ctx context.Context, eventID string) bool {
	if s.redisClient == nil || eventID == "" {
		return false
	}
	exists, err := s.redisClient.Exists(ctx, eventKey(eventID)).Result()
	return err == nil && exists > 0
}

func (s *PaymentService) remember(ctx context.Context, eventID string) {
	if s.redisClient == nil || eventID == "" {
		return
	}
	s.redisClient.Set(ctx, eventKey(eventID), "1", eventDedupeTTL)
}

func eventKey(id string) string { return "stripe_event:" + id }

// ToMinorUnits converts a decimal amount to cents, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
