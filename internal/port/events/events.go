// Package events defines the port interface for publishing sync run events
// to external consumers (notifiers, dashboards).
package events

import (
	"context"
	"time"
)

// RunCompleted is emitted after every run, regardless of outcome.
type RunCompleted struct {
	SyncID     string    `json:"sync_id"`
	UserID     string    `json:"user_id"`
	Status     string    `json:"status"`
	Created    int       `json:"created"`
	Updated    int       `json:"updated"`
	ErrorCount int       `json:"error_count"`
	FinishedAt time.Time `json:"finished_at"`
}

// Publisher is the port interface for the event stream. Implementations must
// be safe for concurrent use. Publishing is best-effort from the engine's
// point of view: a publish failure never changes a run's outcome.
type Publisher interface {
	PublishRunCompleted(ctx context.Context, ev RunCompleted) error
}
