package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Mel4sa/WORKNEST-sub000/breaker"
	"github.com/Mel4sa/WORKNEST-sub000/logging"
	"github.com/Mel4sa/WORKNEST-sub000/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"
)

// Publisher is the part of *amqp.Channel the e-mail queue needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// EmailQueue publishes e-mail jobs to a durable RabbitMQ queue. A separate
// mailer consumes the queue and does the actual delivery.
type EmailQueue struct {
	conn    *amqp.Connection
	channel Publisher
	queue   string
	breaker *gobreaker.CircuitBreaker
}

func NewEmailQueue(url, queue string) (*EmailQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	logging.Logger.Infof("Event ID: RABBITMQ_CONNECTED, Description: Publishing e-mail jobs to queue %s", queue)

	q := NewEmailQueueWithPublisher(ch, queue)
	q.conn = conn
	return q, nil
}

// NewEmailQueueWithPublisher wraps an existing channel.
func NewEmailQueueWithPublisher(p Publisher, queue string) *EmailQueue {
	return &EmailQueue{
		channel: p,
		queue:   queue,
		breaker: breaker.New("email-queue-cb", 10*time.Second),
	}
}

func (q *EmailQueue) Send(ctx context.Context, job models.EmailJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode e-mail job: %w", err)
	}
	_, err = q.breaker.Execute(func() (interface{}, error) {
		return nil, q.channel.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    job.CreatedAt,
			Type:         string(job.Type),
			Body:         body,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s e-mail job: %w", job.Type, err)
	}
	logging.Logger.Debugf("Event ID: EMAIL_JOB_QUEUED, Description: %s e-mail queued", job.Type)
	return nil
}

func (q *EmailQueue) Close() error {
	if q.conn == nil {
		return nil
	}
	return q.conn.Close()
}
