package services

import (
	"context"
	"io"

	"github.com/Mel4sa/WORKNEST-sub000/logging"
	"github.com/Mel4sa/WORKNEST-sub000/models"
)

// Mailer hands e-mail jobs to the delivery pipeline.
type Mailer interface {
	Send(ctx context.Context, job models.EmailJob) error
}

// MediaUploader stores a file and returns its durable URL.
type MediaUploader interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
}

// ActivityPublisher emits project activity events.
type ActivityPublisher interface {
	Publish(ctx context.Context, activity models.ProjectActivity) error
}

// LogMailer logs jobs instead of sending them; used when no broker is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, job models.EmailJob) error {
	logging.Logger.Infof("Event ID: EMAIL_JOB_LOGGED, Description: %s e-mail for %s (no broker configured)", job.Type, job.To)
	return nil
}

type NoopActivityPublisher struct{}

func (NoopActivityPublisher) Publish(context.Context, models.ProjectActivity) error {
	return nil
}
