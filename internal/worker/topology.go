package worker

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ordersQueue    = "orders"
	deadLetterExch = "orders.dlx"
	deadLetterQ    = "orders.dlq"
)

// DeclareTopology creates the orders queue. Rejected messages are routed
// through the dead-letter exchange into orders.dlq.
func DeclareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(deadLetterExch, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", deadLetterExch, err)
	}

	queues := []struct {
		name string
		args amqp.Table
	}{
		{name: deadLetterQ},
		{name: ordersQueue, args: amqp.Table{
			"x-dead-letter-exchange":    deadLetterExch,
			"x-dead-letter-routing-key": ordersQueue,
		}},
	}
	for _, q := range queues {
		if _, err := ch.QueueDeclare(q.name, true, false, false, false, q.args); err != nil {
			return fmt.Errorf("declare %s: %w", q.name, err)
		}
	}

	if err := ch.QueueBind(deadLetterQ, ordersQueue, deadLetterExch, false, nil); err != nil {
		return fmt.Errorf("bind %s: %w", deadLetterQ, err)
	}
	return ch.Qos(1, 0, false)
}
