package models

import "time"

// EmailRecord is one line of the local append-only email log.
type EmailRecord struct {
	Email     string `json:"email"`
	Timestamp string `json:"timestamp"`
}

// SubscriptionAttempt is the audit row kept for every POST /api/subscribe.
type SubscriptionAttempt struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Source         string    `json:"source"` // "mailchimp", "local", "local-fallback", "error"
	UpstreamStatus int       `json:"upstream_status,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
