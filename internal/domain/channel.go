package domain

import "time"

// WebhookChannel is a named, configurable outbound endpoint. Multiple rows
// may exist for the same name (benign configuration races); resolution picks
// the most recently updated active row.
type WebhookChannel struct {
	ID          string
	ChannelName string
	EndpointURL string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
