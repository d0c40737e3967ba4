package worker

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/flicky/go-storefront-api/internal/model"
)

const orderPaidType = "order.paid"

// Publisher sends order.paid messages to the orders queue.
type Publisher struct {
	channel *amqp.Channel
}

func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{channel: ch}
}

func (p *Publisher) PublishOrderPaid(ctx context.Context, msg model.OrderMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal order message: %w", err)
	}
	err = p.channel.PublishWithContext(ctx, "", ordersQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Type:         orderPaidType,
		MessageId:    msg.OrderID.String(),
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		return fmt.Errorf("publish order.paid: %w", err)
	}
	return nil
}
