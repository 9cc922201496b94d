package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Mel4sa/WORKNEST-sub000/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeChannel struct {
	key  string
	msgs []amqp.Publishing
	err  error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.key = key
	f.msgs = append(f.msgs, msg)
	return nil
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestEmailQueueSend(t *testing.T) {
	ch := &fakeChannel{}
	q := NewEmailQueueWithPublisher(ch, "email_jobs")

	job := models.EmailJob{
		Type:      models.EmailPasswordReset,
		To:        "ayse@uni.edu",
		Subject:   "Reset your WorkNest password",
		Data:      map[string]string{"link": "http://localhost:5173/reset-password?token=abc"},
		CreatedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	if err := q.Send(context.Background(), job); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(ch.msgs) != 1 || ch.key != "email_jobs" {
		t.Fatalf("expected one message on email_jobs, got %d on %q", len(ch.msgs), ch.key)
	}
	msg := ch.msgs[0]
	if msg.DeliveryMode != amqp.Persistent || msg.ContentType != "application/json" {
		t.Errorf("expected persistent JSON message, got mode=%d type=%s", msg.DeliveryMode, msg.ContentType)
	}
	var decoded models.EmailJob
	if err := json.Unmarshal(msg.Body, &decoded); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if decoded.To != job.To || decoded.Data["link"] != job.Data["link"] {
		t.Errorf("unexpected payload: %+v", decoded)
	}
}

func TestEmailQueueSendFailure(t *testing.T) {
	q := NewEmailQueueWithPublisher(&fakeChannel{err: errors.New("channel closed")}, "email_jobs")
	if err := q.Send(context.Background(), models.EmailJob{Type: models.EmailWelcome}); err == nil {
		t.Fatal("expected an error when the channel fails")
	}
}

func TestActivityProducerPublish(t *testing.T) {
	w := &fakeWriter{}
	p := NewActivityProducerWithWriter(w)
	projectID := primitive.NewObjectID()

	err := p.Publish(context.Background(), models.ProjectActivity{
		ProjectID:    projectID,
		ActivityType: models.ActivityAddMember,
		ActorID:      primitive.NewObjectID(),
		Timestamp:    time.Now(),
		Details:      "joined",
	})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	if string(w.msgs[0].Key) != projectID.Hex() {
		t.Errorf("expected key %s, got %s", projectID.Hex(), w.msgs[0].Key)
	}
	if len(w.msgs[0].Headers) != 1 || string(w.msgs[0].Headers[0].Value) != "AddMember" {
		t.Errorf("unexpected headers: %+v", w.msgs[0].Headers)
	}
}

func TestActivityProducerTripsBreaker(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := NewActivityProducerWithWriter(w)

	for i := 0; i < 6; i++ {
		if err := p.Publish(context.Background(), models.ProjectActivity{ActivityType: models.ActivityProjectCreated}); err == nil {
			t.Fatalf("call %d: expected an error", i)
		}
	}
	w.err = nil
	if err := p.Publish(context.Background(), models.ProjectActivity{ActivityType: models.ActivityProjectCreated}); err == nil {
		t.Error("expected the open breaker to reject the call")
	}
	if len(w.msgs) != 0 {
		t.Errorf("no message should reach the writer while open, got %d", len(w.msgs))
	}
}

func TestActivityProducerWritesAsync(t *testing.T) {
	p := NewActivityProducer("localhost:9092", "worknest.project-activity")
	w, ok := p.writer.(*kafka.Writer)
	if !ok {
		t.Fatalf("expected a *kafka.Writer, got %T", p.writer)
	}
	if !w.Async {
		t.Error("activity events must not block the request path")
	}
	if w.Completion == nil {
		t.Fatal("expected a completion callback to report delivery failures")
	}
	w.Completion([]kafka.Message{{Value: []byte("{}")}}, errors.New("broker unreachable"))
	w.Completion(nil, nil)
}
