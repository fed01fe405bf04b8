package domain

import "time"

// Severity classifies the tone of a notification in the user's inbox.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// Notification is a write-once, user-visible message. The core creates
// notifications on terminal transitions and never updates them.
type Notification struct {
	ID                string
	UserID            string
	Title             string
	Message           string
	Severity          Severity
	RelatedEntityID   string
	RelatedEntityType string
	CreatedAt         time.Time
}
