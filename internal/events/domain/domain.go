package domain

import (
	"context"
	"time"
)

// Event represents a submission lifecycle event.
// Type examples: "submission.accepted", "submission.rejected",
// "submission.bot", "notification.failed".
// Meta may contain form_name, reason, ip, etc.
type Event struct {
	Type     string
	ConfigID string
	TenantID string
	Meta     map[string]string
	Time     time.Time
}

// Publisher publishes events to an external system (log, queue, etc.).
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}
