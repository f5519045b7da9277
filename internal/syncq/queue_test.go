package syncq

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/tradeos/fieldsync/internal/apperrors"
	"github.com/tradeos/fieldsync/internal/models"
)

// setupTestDB creates an in-memory database with the queue schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE sync_queue (
			id TEXT PRIMARY KEY,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			action TEXT NOT NULL,
			payload TEXT NOT NULL,
			target_url TEXT NOT NULL,
			http_method TEXT NOT NULL,
			priority INTEGER NOT NULL DEFAULT 1,
			enqueued_at INTEGER NOT NULL,
			retry_count INTEGER NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT ''
		);
	`)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db
}

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(setupTestDB(t), log)
}

func TestEnqueue(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	job := &models.Job{ID: "j1", Title: "Fix gutter", SyncStatus: models.SyncStatusPending}
	m, err := q.Enqueue(ctx, models.EntityJob, models.ActionCreate, job.ID, job, models.PriorityNormal)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	if m.ID == "" {
		t.Error("expected mutation id to be set")
	}
	if m.TargetURL != "/api/jobs" {
		t.Errorf("TargetURL = %q, want /api/jobs", m.TargetURL)
	}
	if m.HTTPMethod != "POST" {
		t.Errorf("HTTPMethod = %q, want POST", m.HTTPMethod)
	}
	if m.RetryCount != 0 {
		t.Errorf("RetryCount = %d, want 0", m.RetryCount)
	}

	n, err := q.Size(ctx)
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Size = %d, want 1", n)
	}
}

func TestEnqueueRejectsUnknownType(t *testing.T) {
	q := newTestQueue(t)

	_, err := q.Enqueue(context.Background(), models.EntityType("invoice"), models.ActionCreate, "x1", nil, models.PriorityNormal)
	if err == nil {
		t.Fatal("expected error for unknown entity type")
	}
	if !apperrors.Is(err, apperrors.ErrInvalid) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestListPendingFIFOWithinPriority(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	first, _ := q.Enqueue(ctx, models.EntityJob, models.ActionCreate, "j1", &models.Job{ID: "j1"}, models.PriorityNormal)
	second, _ := q.Enqueue(ctx, models.EntityJob, models.ActionUpdate, "j1", &models.Job{ID: "j1"}, models.PriorityNormal)

	pending, err := q.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("len = %d, want 2", len(pending))
	}
	if pending[0].ID != first.ID {
		t.Errorf("expected oldest mutation first, got %s", pending[0].ID)
	}
	if pending[1].ID != second.ID {
		t.Errorf("expected newest mutation last, got %s", pending[1].ID)
	}
}

func TestListPendingPriorityBeatsAge(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	low, _ := q.Enqueue(ctx, models.EntityTask, models.ActionCreate, "t1", &models.Task{ID: "t1"}, models.PriorityLow)
	high, _ := q.Enqueue(ctx, models.EntityPhoto, models.ActionCreate, "p1", &models.Photo{ID: "p1"}, models.PriorityHigh)

	pending, err := q.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if pending[0].ID != high.ID {
		t.Errorf("expected high-priority mutation first, got %s", pending[0].ID)
	}
	if pending[1].ID != low.ID {
		t.Errorf("expected low-priority mutation last, got %s", pending[1].ID)
	}
}

func TestRemove(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	m, _ := q.Enqueue(ctx, models.EntityJob, models.ActionCreate, "j1", &models.Job{ID: "j1"}, models.PriorityNormal)
	if err := q.Remove(ctx, m.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	n, _ := q.Size(ctx)
	if n != 0 {
		t.Errorf("Size = %d after remove, want 0", n)
	}

	err := q.Remove(ctx, m.ID)
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected NOT_FOUND for second remove, got %v", err)
	}
}

func TestBumpRetry(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	m, _ := q.Enqueue(ctx, models.EntityCustomer, models.ActionCreate, "c1", &models.Customer{ID: "c1"}, models.PriorityNormal)

	count, err := q.BumpRetry(ctx, m.ID, errors.New("connection refused"))
	if err != nil {
		t.Fatalf("BumpRetry failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	count, _ = q.BumpRetry(ctx, m.ID, errors.New("timeout"))
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	pending, _ := q.ListPending(ctx)
	if pending[0].RetryCount != 2 {
		t.Errorf("persisted RetryCount = %d, want 2", pending[0].RetryCount)
	}
	if pending[0].LastError != "timeout" {
		t.Errorf("LastError = %q, want timeout", pending[0].LastError)
	}
}

func TestCountFor(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	q.Enqueue(ctx, models.EntityJob, models.ActionCreate, "j1", &models.Job{ID: "j1"}, models.PriorityNormal)
	q.Enqueue(ctx, models.EntityJob, models.ActionUpdate, "j1", &models.Job{ID: "j1"}, models.PriorityNormal)
	q.Enqueue(ctx, models.EntityJob, models.ActionCreate, "j2", &models.Job{ID: "j2"}, models.PriorityNormal)

	n, err := q.CountFor(ctx, models.EntityJob, "j1")
	if err != nil {
		t.Fatalf("CountFor failed: %v", err)
	}
	if n != 2 {
		t.Errorf("CountFor(j1) = %d, want 2", n)
	}
}

func TestStats(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	q.Enqueue(ctx, models.EntityJob, models.ActionCreate, "j1", &models.Job{ID: "j1"}, models.PriorityNormal)
	q.Enqueue(ctx, models.EntityPhoto, models.ActionCreate, "p1", &models.Photo{ID: "p1"}, models.PriorityNormal)
	q.Enqueue(ctx, models.EntityPhoto, models.ActionCreate, "p2", &models.Photo{ID: "p2"}, models.PriorityNormal)

	stats, err := q.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[models.EntityJob] != 1 || stats[models.EntityPhoto] != 2 {
		t.Errorf("unexpected stats: %v", stats)
	}
}

func TestClear(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	q.Enqueue(ctx, models.EntityJob, models.ActionCreate, "j1", &models.Job{ID: "j1"}, models.PriorityNormal)
	if err := q.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	n, _ := q.Size(ctx)
	if n != 0 {
		t.Errorf("Size = %d after clear, want 0", n)
	}
}
