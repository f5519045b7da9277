// Package models provides data model definitions for the FieldSync core.
package models

import "fmt"

// SyncStatus distinguishes reconciled records from locally-ahead ones.
type SyncStatus string

const (
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusPending SyncStatus = "pending"
	SyncStatusFailed  SyncStatus = "failed"
)

// Valid reports whether s is a known sync status.
func (s SyncStatus) Valid() bool {
	switch s {
	case SyncStatusSynced, SyncStatusPending, SyncStatusFailed:
		return true
	}
	return false
}

// EntityType identifies one of the four entity collections.
type EntityType string

const (
	EntityJob      EntityType = "job"
	EntityTask     EntityType = "task"
	EntityCustomer EntityType = "customer"
	EntityPhoto    EntityType = "photo"
)

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool {
	switch t {
	case EntityJob, EntityTask, EntityCustomer, EntityPhoto:
		return true
	}
	return false
}

// Collection returns the local table name for an entity type.
// Unknown types are an explicit error, never silently mapped.
func (t EntityType) Collection() (string, error) {
	switch t {
	case EntityJob:
		return "jobs", nil
	case EntityTask:
		return "tasks", nil
	case EntityCustomer:
		return "customers", nil
	case EntityPhoto:
		return "photos", nil
	}
	return "", fmt.Errorf("unknown entity type: %q", t)
}

// Action is a queued mutation kind.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Priority orders queue drain ahead of enqueue time.
type Priority int

const (
	PriorityLow    Priority = 0
	PriorityNormal Priority = 1
	PriorityHigh   Priority = 2
)

// Entity is the common surface of the four record variants.
// The store owns LastModified; the store's save path and the sync
// processor own SyncStatus.
type Entity interface {
	EntityID() string
	EntityKind() EntityType
	State() SyncStatus
	SetState(s SyncStatus)
	Modified() int64
	Touch()
}
