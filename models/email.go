package models

import "time"

type EmailJobType string

const (
	EmailWelcome       EmailJobType = "welcome"
	EmailPasswordReset EmailJobType = "password_reset"
)

// EmailJob is the payload published to the e-mail queue. The mailer that
// consumes it owns templating and delivery.
type EmailJob struct {
	Type      EmailJobType      `json:"type"`
	To        string            `json:"to"`
	Subject   string            `json:"subject"`
	Data      map[string]string `json:"data"`
	CreatedAt time.Time         `json:"createdAt"`
}
