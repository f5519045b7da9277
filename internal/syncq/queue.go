// Package syncq provides the durable queue of pending outbound
// mutations. The queue lives in its own table, decoupled from the
// entity collections, so queue corruption cannot silently lose entity
// data and vice versa.
package syncq

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tradeos/fieldsync/internal/apperrors"
	"github.com/tradeos/fieldsync/internal/models"
	"github.com/tradeos/fieldsync/internal/uuid"
)

// RetryCeiling is the fixed number of delivery attempts before a
// mutation is abandoned and its entity left unsynced.
const RetryCeiling = 3

// Execer is the subset of sql.DB/sql.Tx the queue writes through,
// so enqueues can join the store's save transaction.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Build assembles a mutation record for an entity snapshot, deriving
// its target URL and HTTP method. payload may be a model struct or a
// pre-marshaled json.RawMessage.
func Build(t models.EntityType, a models.Action, entityID string, payload any, prio models.Priority) (*models.Mutation, error) {
	if !t.Valid() {
		return nil, apperrors.New(apperrors.ErrInvalid, "unknown entity type: "+string(t))
	}
	if !a.Valid() {
		return nil, apperrors.New(apperrors.ErrInvalid, "unknown action: "+string(a))
	}

	path, method, err := Route(t, a, entityID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalid, "no route for mutation", err)
	}

	var raw json.RawMessage
	switch p := payload.(type) {
	case json.RawMessage:
		raw = p
	case []byte:
		raw = json.RawMessage(p)
	default:
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalid, "failed to marshal payload", err)
		}
	}

	return &models.Mutation{
		ID:         uuid.New(),
		EntityType: t,
		EntityID:   entityID,
		Action:     a,
		Payload:    raw,
		TargetURL:  path,
		HTTPMethod: method,
		Priority:   prio,
		EnqueuedAt: time.Now().Unix(),
	}, nil
}

// Insert persists a mutation through e, which may be the store's
// transaction so that entity write and enqueue commit together.
func Insert(ctx context.Context, e Execer, m *models.Mutation) error {
	query := `
	INSERT INTO sync_queue (id, entity_type, entity_id, action, payload, target_url, http_method, priority, enqueued_at, retry_count, last_error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := e.ExecContext(ctx, query, m.ID, m.EntityType, m.EntityID, m.Action,
		string(m.Payload), m.TargetURL, m.HTTPMethod, int(m.Priority),
		m.EnqueuedAt, m.RetryCount, m.LastError)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to insert mutation", err)
	}
	return nil
}

// Queue manages the persisted mutation list.
type Queue struct {
	db  *sql.DB
	log *logrus.Logger
}

// New creates a Queue over an already-migrated database handle.
func New(db *sql.DB, log *logrus.Logger) *Queue {
	return &Queue{db: db, log: log}
}

// Enqueue creates and persists a new mutation record.
func (q *Queue) Enqueue(ctx context.Context, t models.EntityType, a models.Action, entityID string, payload any, prio models.Priority) (*models.Mutation, error) {
	m, err := Build(t, a, entityID, payload, prio)
	if err != nil {
		return nil, err
	}
	if err := Insert(ctx, q.db, m); err != nil {
		return nil, err
	}

	q.log.WithFields(logrus.Fields{
		"mutation_id": m.ID,
		"entity_type": m.EntityType,
		"entity_id":   m.EntityID,
		"action":      m.Action,
	}).Debug("mutation enqueued")

	return m, nil
}

const mutationColumns = `id, entity_type, entity_id, action, payload, target_url, http_method, priority, enqueued_at, retry_count, last_error`

func scanMutation(rows *sql.Rows) (*models.Mutation, error) {
	var m models.Mutation
	var payload string
	var prio int
	err := rows.Scan(&m.ID, &m.EntityType, &m.EntityID, &m.Action, &payload,
		&m.TargetURL, &m.HTTPMethod, &prio, &m.EnqueuedAt, &m.RetryCount, &m.LastError)
	if err != nil {
		return nil, err
	}
	m.Payload = json.RawMessage(payload)
	m.Priority = models.Priority(prio)
	return &m, nil
}

// ListPending returns all queued mutations ordered by priority
// descending, then enqueue time ascending. Insertion order breaks
// same-second ties, so two saves of one entity always drain in the
// order they happened.
func (q *Queue) ListPending(ctx context.Context) ([]*models.Mutation, error) {
	query := `SELECT ` + mutationColumns + ` FROM sync_queue ORDER BY priority DESC, enqueued_at ASC, rowid ASC`
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to list pending mutations", err)
	}
	defer rows.Close()

	var out []*models.Mutation
	for rows.Next() {
		m, err := scanMutation(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to scan mutation", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to list pending mutations", err)
	}
	return out, nil
}

// Remove deletes a mutation on confirmed success or abandonment.
func (q *Queue) Remove(ctx context.Context, mutationID string) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM sync_queue WHERE id = ?", mutationID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to remove mutation", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.New(apperrors.ErrNotFound, "mutation not found: "+mutationID)
	}
	return nil
}

// BumpRetry increments the retry count, records the failure cause, and
// returns the new count. The caller compares against RetryCeiling to
// decide whether to abandon.
func (q *Queue) BumpRetry(ctx context.Context, mutationID string, cause error) (int, error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := q.db.ExecContext(ctx,
		"UPDATE sync_queue SET retry_count = retry_count + 1, last_error = ? WHERE id = ?",
		msg, mutationID)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrStorage, "failed to bump retry count", err)
	}

	var count int
	err = q.db.QueryRowContext(ctx,
		"SELECT retry_count FROM sync_queue WHERE id = ?", mutationID).Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrStorage, "failed to read retry count", err)
	}
	return count, nil
}

// Size returns the number of queued mutations.
func (q *Queue) Size(ctx context.Context) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sync_queue").Scan(&n)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrStorage, "failed to count mutations", err)
	}
	return n, nil
}

// CountFor returns the number of queued mutations targeting one entity.
func (q *Queue) CountFor(ctx context.Context, t models.EntityType, entityID string) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sync_queue WHERE entity_type = ? AND entity_id = ?",
		t, entityID).Scan(&n)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrStorage, "failed to count mutations", err)
	}
	return n, nil
}

// Stats returns queued mutation counts per entity type.
func (q *Queue) Stats(ctx context.Context) (map[models.EntityType]int, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT entity_type, COUNT(*) FROM sync_queue GROUP BY entity_type")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to read queue stats", err)
	}
	defer rows.Close()

	stats := make(map[models.EntityType]int)
	for rows.Next() {
		var t models.EntityType
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to scan queue stats", err)
		}
		stats[t] = n
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to read queue stats", err)
	}
	return stats, nil
}

// Clear removes every queued mutation.
func (q *Queue) Clear(ctx context.Context) error {
	if _, err := q.db.ExecContext(ctx, "DELETE FROM sync_queue"); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to clear queue", err)
	}
	q.log.Debug("sync queue cleared")
	return nil
}
