package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/go-storefront-api/internal/model"
	"github.com/flicky/go-storefront-api/internal/repository"
	"github.com/flicky/go-storefront-api/internal/service"
)

const processedTTL = 24 * time.Hour

type outcome int

const (
	outcomeDone outcome = iota
	outcomeRetry
	outcomeDeadLetter
)

var errOrderMissing = errors.New("order not found")

// StockWorker consumes order.paid messages and takes the ordered quantities
// out of stock. Each order is applied at most once per processedTTL.
type StockWorker struct {
	channel     *amqp.Channel
	orders      repository.OrderRepository
	products    repository.ProductRepository
	redisClient *redis.Client
	log         *slog.Logger
}

// NewStockWorker accepts a nil redis client, which disables the processed-order guard.
func NewStockWorker(
	ch *amqp.Channel,
	orders repository.OrderRepository,
	products repository.ProductRepository,
	redisClient *redis.Client,
	log *slog.Logger,
) *StockWorker {
	return &StockWorker{channel: ch, orders: orders, products: products, redisClient: redisClient, log: log}
}

// Run consumes until ctx is cancelled or the channel closes.
func (w *StockWorker) Run(ctx context.Context) error {
	deliveries, err := w.channel.Consume(ordersQueue, "stock-worker", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", ordersQueue, err)
	}
	w.log.Info("stock worker started", "queue", ordersQueue)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			w.settle(d, w.handle(ctx, d))
		}
	}
}

func (w *StockWorker) settle(d amqp.Delivery, o outcome) {
	var err error
	switch o {
	case outcomeDone:
		err = d.Ack(false)
	case outcomeRetry:
		err = d.Nack(false, true)
	case outcomeDeadLetter:
		err = d.Nack(false, false)
	}
	if err != nil {
		w.log.Error("settle delivery", "delivery_tag", d.DeliveryTag, "error", err)
	}
}

func (w *StockWorker) handle(ctx context.Context, d amqp.Delivery) outcome {
	var msg model.OrderMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		w.log.Error("decode order message", "error", err)
		return outcomeDeadLetter
	}
	log := w.log.With("order_id", msg.OrderID)

	key := "order_processed:" + msg.OrderID.String()
	if w.redisClient != nil {
		n, err := w.redisClient.Exists(ctx, key).Result()
		if err != nil {
			log.Error("check processed marker", "error", err)
			return outcomeRetry
		}
		if n > 0 {
			log.Info("order already applied")
			return outcomeDone
		}
	}

	if err := w.applyStock(ctx, msg); err != nil {
		log.Error("apply stock", "error", err)
		return outcomeDeadLetter
	}

	if w.redisClient != nil {
		if err := w.redisClient.Set(ctx, key, "1", processedTTL).Err(); err != nil {
			log.Warn("set processed marker", "error", err)
		}
	}
	log.Info("stock updated for paid order")
	return outcomeDone
}

func (w *StockWorker) applyStock(ctx context.Context, msg model.OrderMessage) error {
	order, err := w.orders.GetByID(ctx, msg.OrderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("%w: %s", errOrderMissing, msg.OrderID)
	}
	if order.PaymentStatus != model.PaymentStatusPaid {
		w.log.Warn("skipping unpaid order", "order_id", order.ID, "payment_status", order.PaymentStatus)
		return nil
	}

	for _, item := range order.Items {
		if err := w.products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			return fmt.Errorf("product %s: %w", item.ProductID, err)
		}
		if w.redisClient != nil {
			w.redisClient.Del(ctx, service.ProductCacheKey(item.ProductID))
		}
	}
	return nil
}
