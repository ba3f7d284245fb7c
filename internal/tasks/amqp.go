package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

const cleanupRoutingKey = "tasks.user.cleanup"

// AMQPQueue is a RabbitMQ-backed task queue. Tasks are published persistent
// to a topic exchange and consumed from a durable queue with manual acks,
// which gives the at-least-once delivery the cleanup workflow relies on.
type AMQPQueue struct {
	conn      *amqp.Connection
	ch        *amqp.Channel
	exchange  string
	queueName string
}

// NewAMQPQueue declares the exchange, queue and binding.
func NewAMQPQueue(url, exchange, queueName string) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(queueName, "tasks.#", exchange, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	log.Printf("task queue connected exchange=%s queue=%s", exchange, queueName)
	return &AMQPQueue{conn: conn, ch: ch, exchange: exchange, queueName: queueName}, nil
}

// Enqueue publishes the task and returns without waiting for execution.
func (q *AMQPQueue) Enqueue(ctx context.Context, task Task) error {
	body, err := json.Marshal(task)
	if err != nil {
		return err
	}

	err = q.ch.PublishWithContext(ctx, q.exchange, cleanupRoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish task: %w", err)
	}
	recordEnqueued(task.Type)
	return nil
}

// Consume blocks reading deliveries and invoking fn until the context is
// canceled or the channel closes.
func (q *AMQPQueue) Consume(ctx context.Context, fn CleanupFunc) error {
	deliveries, err := q.ch.Consume(q.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			handleDelivery(ctx, d, fn)
		}
	}
}

// handleDelivery acks a task once its handler succeeds. Failures are
// requeued: the workflow is idempotent, so the broker's redelivery is the
// whole retry story. Undecodable payloads are dropped instead of looping.
func handleDelivery(ctx context.Context, d amqp.Delivery, fn CleanupFunc) {
	var task Task
	if err := json.Unmarshal(d.Body, &task); err != nil {
		log.Printf("task decode failed, dropping: %v", err)
		_ = d.Nack(false, false)
		return
	}

	if err := fn(ctx, task.UserID); err != nil {
		log.Printf("task failed, requeueing type=%s user_id=%d err=%v", task.Type, task.UserID, err)
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

func (q *AMQPQueue) Close() error {
	if q.ch != nil {
		_ = q.ch.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}
