package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/fintrack/fintrack/internal/usecase"
)

const publishTimeout = 5 * time.Second

// AMQPNotifier implements usecase.Notifier by publishing notification
// messages to a durable queue. A downstream delivery worker renders the
// template and sends the actual email.
type AMQPNotifier struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

// NewAMQPNotifier connects to the broker and declares the exchange, queue
// and binding.
func NewAMQPNotifier(url, exchangeName, queueName string) (*AMQPNotifier, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	n := &AMQPNotifier{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := n.setup(); err != nil {
		n.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return n, nil
}

func (n *AMQPNotifier) setup() error {
	err := n.channel.ExchangeDeclare(
		n.exchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = n.channel.QueueDeclare(
		n.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = n.channel.QueueBind(
		n.queueName,
		n.queueName, // routing key, same as queue name for a direct exchange
		n.exchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// notificationMessage is the wire form of a queued notification.
type notificationMessage struct {
	Recipient    string         `json:"recipient"`
	Subject      string         `json:"subject"`
	TemplateType string         `json:"template_type"`
	TemplateData map[string]any `json:"template_data"`
	EnqueuedAt   time.Time      `json:"enqueued_at"`
}

// Send publishes the notification as a persistent message. A nil return
// means the broker accepted it; delivery to the recipient happens
// downstream.
func (n *AMQPNotifier) Send(ctx context.Context, notification usecase.Notification) error {
	body, err := json.Marshal(notificationMessage{
		Recipient:    notification.Recipient,
		Subject:      notification.Subject,
		TemplateType: notification.TemplateType,
		TemplateData: notification.TemplateData,
		EnqueuedAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = n.channel.PublishWithContext(
		ctx,
		n.exchangeName,
		n.queueName,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}

	return nil
}

// Close releases the channel and connection.
func (n *AMQPNotifier) Close() error {
	if n.channel != nil {
		n.channel.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
