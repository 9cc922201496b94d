package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Mel4sa/WORKNEST-sub000/breaker"
	"github.com/Mel4sa/WORKNEST-sub000/logging"
	"github.com/Mel4sa/WORKNEST-sub000/models"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
)

type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ActivityProducer publishes project activity events keyed by project id,
// so all events of one project land on the same partition in order.
type ActivityProducer struct {
	writer  Writer
	breaker *gobreaker.CircuitBreaker
}

// NewActivityProducer writes asynchronously: Publish only enqueues, and
// delivery failures surface through logCompletion.
func NewActivityProducer(brokerURL, topic string) *ActivityProducer {
	return NewActivityProducerWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokerURL),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion:   logCompletion,
	})
}

func logCompletion(messages []kafka.Message, err error) {
	if err != nil {
		logging.Logger.Warnf("Event ID: KAFKA_DELIVERY_FAILED, Description: %d activity event(s) were not delivered: %v", len(messages), err)
		return
	}
	logging.Logger.Debugf("Event ID: KAFKA_DELIVERED, Description: %d activity event(s) delivered", len(messages))
}

func NewActivityProducerWithWriter(w Writer) *ActivityProducer {
	return &ActivityProducer{
		writer:  w,
		breaker: breaker.New("activity-events-cb", 5*time.Second),
	}
}

func (p *ActivityProducer) Publish(ctx context.Context, activity models.ProjectActivity) error {
	value, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("failed to encode activity: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(activity.ProjectID.Hex()),
		Value: value,
		Time:  activity.Timestamp,
		Headers: []kafka.Header{
			{Key: "activityType", Value: []byte(activity.ActivityType)},
		},
	}
	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.writer.WriteMessages(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", activity.ActivityType, err)
	}
	return nil
}

func (p *ActivityProducer) Close() error {
	return p.writer.Close()
}
