package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"blogsphere/pkg/config"
	"blogsphere/pkg/ledger"
	"blogsphere/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ChargeEventsQueueName = "billing_charge_events"
	BillingExchange       = "billing"
	ChargeRoutingKey      = "charge"
)

// Channel is the subset of *amqp.Channel the client uses.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	QueueInspect(name string) (amqp.Queue, error)
	Close() error
}

type Client struct {
	conn    *amqp.Connection
	channel Channel
	logger  *logger.Logger
}

func URL(cfg *config.Config) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitMQUser,
		cfg.RabbitMQPassword,
		cfg.RabbitMQHost,
		cfg.RabbitMQPort,
	)
}

func NewRabbitMQClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	conn, err := amqp.Dial(URL(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		BillingExchange, // name
		"direct",        // type
		true,            // durable
		false,           // auto-deleted
		false,           // internal
		false,           // no-wait
		nil,             // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	// succeeded charges jump ahead of failures and refunds
	_, err = channel.QueueDeclare(
		ChargeEventsQueueName, // name
		true,                  // durable
		false,                 // delete when unused
		false,                 // exclusive
		false,                 // no-wait
		amqp.Table{
			"x-max-priority": 10,
		},
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	err = channel.QueueBind(
		ChargeEventsQueueName, // queue name
		ChargeRoutingKey,      // routing key
		BillingExchange,       // exchange
		false,
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	// one unacked event per worker
	if err := channel.Qos(1, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	log.Info("Connected to RabbitMQ at %s:%s", cfg.RabbitMQHost, cfg.RabbitMQPort)

	return &Client{
		conn:    conn,
		channel: channel,
		logger:  log,
	}, nil
}

// NewWithChannel wraps an already configured channel.
func NewWithChannel(channel Channel, log *logger.Logger) *Client {
	return &Client{channel: channel, logger: log}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func priorityFor(ev ledger.ChargeEvent) uint8 {
	if ev.Status == "succeeded" {
		return 9
	}
	return 1
}

// PublishChargeEvent enqueues a verified webhook event for the billing worker.
func (c *Client) PublishChargeEvent(ev ledger.ChargeEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal charge event: %w", err)
	}

	err = c.channel.Publish(
		BillingExchange,  // exchange
		ChargeRoutingKey, // routing key
		false,            // mandatory
		false,            // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    ev.EventID,
			Body:         body,
			Priority:     priorityFor(ev),
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		c.logger.Error("[RABBITMQ] Failed to publish charge event %s: %v", ev.EventID, err)
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.logger.Info("[RABBITMQ] Published charge event %s (%s) to exchange=%s", ev.EventID, ev.Type, BillingExchange)
	return nil
}

// ConsumeChargeEvents starts a goroutine delivering events to handler. A
// handler error requeues the message; undecodable messages are dropped.
func (c *Client) ConsumeChargeEvents(handler func(ev ledger.ChargeEvent) error) error {
	msgs, err := c.channel.Consume(
		ChargeEventsQueueName, // queue
		"",                    // consumer
		false,                 // auto-ack
		false,                 // exclusive
		false,                 // no-local
		false,                 // no-wait
		nil,                   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("[RABBITMQ] Started consuming from queue: %s", ChargeEventsQueueName)

	go func() {
		for msg := range msgs {
			var ev ledger.ChargeEvent
			if err := json.Unmarshal(msg.Body, &ev); err != nil {
				c.logger.Error("[RABBITMQ] Failed to unmarshal charge event: %v, body=%s", err, string(msg.Body))
				msg.Nack(false, false)
				continue
			}

			if err := handler(ev); err != nil {
				c.logger.Error("[RABBITMQ] Handler failed for charge event %s: %v", ev.EventID, err)
				msg.Nack(false, true)
				continue
			}

			msg.Ack(false)
		}
		c.logger.Warn("[RABBITMQ] Delivery channel for %s closed", ChargeEventsQueueName)
	}()

	return nil
}

// GetQueueLength reports how many charge events are waiting for the worker.
func (c *Client) GetQueueLength() (int, error) {
	queue, err := c.channel.QueueInspect(ChargeEventsQueueName)
	if err != nil {
		return 0, err
	}
	return queue.Messages, nil
}
