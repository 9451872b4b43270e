package history

import (
	"context"
	"time"
)

// Event is one notification that was broadcast to connected clients.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Agent     string    `json:"agent"`
	Message   string    `json:"message"`
	Timestamp float64   `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

// Store records broadcast notifications and serves a recent trail.
type Store interface {
	Record(ctx context.Context, event Event) error
	Recent(ctx context.Context, limit int) ([]Event, error)
	Enabled() bool
	Close() error
}
