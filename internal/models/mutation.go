package models

import (
	"encoding/json"
	"time"
)

// Mutation represents one outstanding remote write queued while the
// network is unavailable. Payload is a full snapshot of the entity at
// enqueue time, not a diff; for photos the blob is inlined so the
// payload stays self-contained.
type Mutation struct {
	ID         string          `db:"id" json:"id"`
	EntityType EntityType      `db:"entity_type" json:"entityType"`
	EntityID   string          `db:"entity_id" json:"entityId"`
	Action     Action          `db:"action" json:"action"`
	Payload    json.RawMessage `db:"payload" json:"payload"`
	TargetURL  string          `db:"target_url" json:"targetUrl"`
	HTTPMethod string          `db:"http_method" json:"httpMethod"`
	Priority   Priority        `db:"priority" json:"priority"`
	EnqueuedAt int64           `db:"enqueued_at" json:"enqueuedAt"`
	RetryCount int             `db:"retry_count" json:"retryCount"`
	LastError  string          `db:"last_error" json:"lastError,omitempty"`
}

// TableName returns the table name for Mutation.
func (Mutation) TableName() string {
	return "sync_queue"
}

// EnqueuedTime returns the EnqueuedAt as time.Time.
func (m *Mutation) EnqueuedTime() time.Time {
	return time.Unix(m.EnqueuedAt, 0)
}
