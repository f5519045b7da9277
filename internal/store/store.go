package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tradeos/fieldsync/internal/apperrors"
	"github.com/tradeos/fieldsync/internal/models"
	"github.com/tradeos/fieldsync/internal/syncq"
	"github.com/tradeos/fieldsync/internal/uuid"
)

// Store provides durable, indexed storage for the four entity
// collections plus the app-state table. Saves of pending records
// enqueue the matching mutation in the same transaction, so an entity
// marked pending always has a queue entry once Save returns.
type Store struct {
	db  *sql.DB
	log *logrus.Logger
}

// New creates a Store over an already-migrated database handle.
func New(db *sql.DB, log *logrus.Logger) *Store {
	return &Store{db: db, log: log}
}

// enqueueIfPending creates the create/update mutation for a pending
// entity inside the save transaction. existed selects the action; the
// remote create endpoint upserts by id, so photos always replay as
// creates (they have no update route).
func enqueueIfPending(ctx context.Context, tx *sql.Tx, e models.Entity, existed bool) error {
	if e.State() != models.SyncStatusPending {
		return nil
	}

	action := models.ActionCreate
	if existed && e.EntityKind() != models.EntityPhoto {
		action = models.ActionUpdate
	}

	m, err := syncq.Build(e.EntityKind(), action, e.EntityID(), e, models.PriorityNormal)
	if err != nil {
		return err
	}
	return syncq.Insert(ctx, tx, m)
}

func (s *Store) prepareSave(e models.Entity, assignID func(string)) error {
	if e.EntityID() == "" {
		assignID(uuid.New())
	}
	if e.State() == "" {
		e.SetState(models.SyncStatusPending)
	}
	if !e.State().Valid() {
		return apperrors.New(apperrors.ErrInvalid, "unknown sync status: "+string(e.State()))
	}
	e.Touch()
	return nil
}

func (s *Store) exists(ctx context.Context, tx *sql.Tx, table, id string) (bool, error) {
	var found bool
	err := tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM "+table+" WHERE id = ?)", id).Scan(&found)
	return found, err
}

// =====================================================
// Job operations
// =====================================================

const jobColumns = `id, title, status, customer_id, scheduled_date, value, notes, sync_status, last_modified`

// SaveJob upserts a job by id. LastModified is always rewritten; a
// pending job gets a create or update mutation enqueued atomically
// with the write.
func (s *Store) SaveJob(ctx context.Context, j *models.Job) error {
	if err := s.prepareSave(j, func(id string) { j.ID = id }); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	existed, err := s.exists(ctx, tx, "jobs", j.ID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to check job existence", err)
	}

	if existed {
		_, err = tx.ExecContext(ctx, `
		UPDATE jobs SET title = ?, status = ?, customer_id = ?, scheduled_date = ?,
			value = ?, notes = ?, sync_status = ?, last_modified = ?
		WHERE id = ?`,
			j.Title, j.Status, j.CustomerID, j.ScheduledDate, j.Value, j.Notes,
			j.SyncStatus, j.LastModified, j.ID)
	} else {
		_, err = tx.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			j.ID, j.Title, j.Status, j.CustomerID, j.ScheduledDate, j.Value, j.Notes,
			j.SyncStatus, j.LastModified)
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to save job", err)
	}

	if err := enqueueIfPending(ctx, tx, j, existed); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to commit job save", err)
	}
	return nil
}

func scanJob(row interface{ Scan(...any) error }) (*models.Job, error) {
	var j models.Job
	err := row.Scan(&j.ID, &j.Title, &j.Status, &j.CustomerID, &j.ScheduledDate,
		&j.Value, &j.Notes, &j.SyncStatus, &j.LastModified)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// GetJob returns the job with the given id, or nil if absent.
func (s *Store) GetJob(ctx context.Context, id string) (*models.Job, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to get job", err)
	}
	return j, nil
}

func (s *Store) listJobs(ctx context.Context, where string, args ...any) ([]*models.Job, error) {
	query := "SELECT " + jobColumns + " FROM jobs"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY last_modified DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to list jobs", err)
	}
	defer rows.Close()

	var out []*models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to scan job", err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to list jobs", err)
	}
	return out, nil
}

// ListJobs returns all jobs, most recently modified first.
func (s *Store) ListJobs(ctx context.Context) ([]*models.Job, error) {
	return s.listJobs(ctx, "")
}

// ListJobsByStatus returns jobs in one workflow state.
func (s *Store) ListJobsByStatus(ctx context.Context, status models.JobStatus) ([]*models.Job, error) {
	return s.listJobs(ctx, "status = ?", status)
}

// ListJobsBySyncStatus returns jobs in one sync state.
func (s *Store) ListJobsBySyncStatus(ctx context.Context, status models.SyncStatus) ([]*models.Job, error) {
	return s.listJobs(ctx, "sync_status = ?", status)
}

// ListJobsByCustomer returns all jobs for one customer.
func (s *Store) ListJobsByCustomer(ctx context.Context, customerID string) ([]*models.Job, error) {
	return s.listJobs(ctx, "customer_id = ?", customerID)
}

// =====================================================
// Task operations
// =====================================================

const taskColumns = `id, job_id, title, status, due_date, sync_status, last_modified`

// SaveTask upserts a task by id, enqueueing a mutation when pending.
func (s *Store) SaveTask(ctx context.Context, t *models.Task) error {
	if err := s.prepareSave(t, func(id string) { t.ID = id }); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	existed, err := s.exists(ctx, tx, "tasks", t.ID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to check task existence", err)
	}

	if existed {
		_, err = tx.ExecContext(ctx, `
		UPDATE tasks SET job_id = ?, title = ?, status = ?, due_date = ?,
			sync_status = ?, last_modified = ?
		WHERE id = ?`,
			t.JobID, t.Title, t.Status, t.DueDate, t.SyncStatus, t.LastModified, t.ID)
	} else {
		_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.JobID, t.Title, t.Status, t.DueDate, t.SyncStatus, t.LastModified)
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to save task", err)
	}

	if err := enqueueIfPending(ctx, tx, t, existed); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to commit task save", err)
	}
	return nil
}

func scanTask(row interface{ Scan(...any) error }) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.JobID, &t.Title, &t.Status, &t.DueDate,
		&t.SyncStatus, &t.LastModified)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTask returns the task with the given id, or nil if absent.
func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to get task", err)
	}
	return t, nil
}

func (s *Store) listTasks(ctx context.Context, where string, args ...any) ([]*models.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY last_modified DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to list tasks", err)
	}
	defer rows.Close()

	var out []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to scan task", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to list tasks", err)
	}
	return out, nil
}

// ListTasks returns all tasks, most recently modified first.
func (s *Store) ListTasks(ctx context.Context) ([]*models.Task, error) {
	return s.listTasks(ctx, "")
}

// ListTasksByJob returns all tasks under one job.
func (s *Store) ListTasksByJob(ctx context.Context, jobID string) ([]*models.Task, error) {
	return s.listTasks(ctx, "job_id = ?", jobID)
}

// ListTasksBySyncStatus returns tasks in one sync state.
func (s *Store) ListTasksBySyncStatus(ctx context.Context, status models.SyncStatus) ([]*models.Task, error) {
	return s.listTasks(ctx, "sync_status = ?", status)
}

// =====================================================
// Customer operations
// =====================================================

const customerColumns = `id, name, email, phone, address, sync_status, last_modified`

// SaveCustomer upserts a customer by id, enqueueing a mutation when pending.
func (s *Store) SaveCustomer(ctx context.Context, c *models.Customer) error {
	if err := s.prepareSave(c, func(id string) { c.ID = id }); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	existed, err := s.exists(ctx, tx, "customers", c.ID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to check customer existence", err)
	}

	if existed {
		_, err = tx.ExecContext(ctx, `
		UPDATE customers SET name = ?, email = ?, phone = ?, address = ?,
			sync_status = ?, last_modified = ?
		WHERE id = ?`,
			c.Name, c.Email, c.Phone, c.Address, c.SyncStatus, c.LastModified, c.ID)
	} else {
		_, err = tx.ExecContext(ctx, `
		INSERT INTO customers (`+customerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.Email, c.Phone, c.Address, c.SyncStatus, c.LastModified)
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to save customer", err)
	}

	if err := enqueueIfPending(ctx, tx, c, existed); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to commit customer save", err)
	}
	return nil
}

func scanCustomer(row interface{ Scan(...any) error }) (*models.Customer, error) {
	var c models.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address,
		&c.SyncStatus, &c.LastModified)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCustomer returns the customer with the given id, or nil if absent.
func (s *Store) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+customerColumns+" FROM customers WHERE id = ?", id)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to get customer", err)
	}
	return c, nil
}

func (s *Store) listCustomers(ctx context.Context, where string, args ...any) ([]*models.Customer, error) {
	query := "SELECT " + customerColumns + " FROM customers"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY name ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to list customers", err)
	}
	defer rows.Close()

	var out []*models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to scan customer", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to list customers", err)
	}
	return out, nil
}

// ListCustomers returns all customers ordered by name.
func (s *Store) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	return s.listCustomers(ctx, "")
}

// ListCustomersBySyncStatus returns customers in one sync state.
func (s *Store) ListCustomersBySyncStatus(ctx context.Context, status models.SyncStatus) ([]*models.Customer, error) {
	return s.listCustomers(ctx, "sync_status = ?", status)
}

// =====================================================
// Photo operations
// =====================================================

const photoColumns = `id, job_id, task_id, blob, mime_type, size, captured_at, latitude, longitude, accuracy, fixed_at, sync_status, last_modified`

func geoArgs(g *models.Geo) (lat, lon, acc, fixed any) {
	if g == nil {
		return nil, nil, nil, nil
	}
	return g.Latitude, g.Longitude, g.Accuracy, g.FixedAt
}

// SavePhoto upserts a photo by id. Photos replay as creates on
// re-save; the remote create endpoint upserts by id.
func (s *Store) SavePhoto(ctx context.Context, p *models.Photo) error {
	if err := s.prepareSave(p, func(id string) { p.ID = id }); err != nil {
		return err
	}
	if p.Size == 0 {
		p.Size = int64(len(p.Blob))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	existed, err := s.exists(ctx, tx, "photos", p.ID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to check photo existence", err)
	}

	lat, lon, acc, fixed := geoArgs(p.Location)
	if existed {
		_, err = tx.ExecContext(ctx, `
		UPDATE photos SET job_id = ?, task_id = ?, blob = ?, mime_type = ?, size = ?,
			captured_at = ?, latitude = ?, longitude = ?, accuracy = ?, fixed_at = ?,
			sync_status = ?, last_modified = ?
		WHERE id = ?`,
			p.JobID, p.TaskID, p.Blob, p.MimeType, p.Size, p.CapturedAt,
			lat, lon, acc, fixed, p.SyncStatus, p.LastModified, p.ID)
	} else {
		_, err = tx.ExecContext(ctx, `
		INSERT INTO photos (`+photoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.JobID, p.TaskID, p.Blob, p.MimeType, p.Size, p.CapturedAt,
			lat, lon, acc, fixed, p.SyncStatus, p.LastModified)
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to save photo", err)
	}

	if err := enqueueIfPending(ctx, tx, p, existed); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to commit photo save", err)
	}
	return nil
}

func scanPhoto(row interface{ Scan(...any) error }) (*models.Photo, error) {
	var p models.Photo
	var lat, lon, acc sql.NullFloat64
	var fixed sql.NullInt64
	err := row.Scan(&p.ID, &p.JobID, &p.TaskID, &p.Blob, &p.MimeType, &p.Size,
		&p.CapturedAt, &lat, &lon, &acc, &fixed, &p.SyncStatus, &p.LastModified)
	if err != nil {
		return nil, err
	}
	if lat.Valid && lon.Valid {
		p.Location = &models.Geo{
			Latitude:  lat.Float64,
			Longitude: lon.Float64,
			Accuracy:  acc.Float64,
			FixedAt:   fixed.Int64,
		}
	}
	return &p, nil
}

// GetPhoto returns the photo with the given id, or nil if absent.
func (s *Store) GetPhoto(ctx context.Context, id string) (*models.Photo, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+photoColumns+" FROM photos WHERE id = ?", id)
	p, err := scanPhoto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to get photo", err)
	}
	return p, nil
}

func (s *Store) listPhotos(ctx context.Context, where string, args ...any) ([]*models.Photo, error) {
	query := "SELECT " + photoColumns + " FROM photos"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY captured_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to list photos", err)
	}
	defer rows.Close()

	var out []*models.Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to scan photo", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to list photos", err)
	}
	return out, nil
}

// ListPhotosByJob returns all photos attached to one job.
func (s *Store) ListPhotosByJob(ctx context.Context, jobID string) ([]*models.Photo, error) {
	return s.listPhotos(ctx, "job_id = ?", jobID)
}

// ListPhotosByTask returns all photos attached to one task.
func (s *Store) ListPhotosByTask(ctx context.Context, taskID string) ([]*models.Photo, error) {
	return s.listPhotos(ctx, "task_id = ?", taskID)
}

// ListPhotosBySyncStatus returns photos in one sync state.
func (s *Store) ListPhotosBySyncStatus(ctx context.Context, status models.SyncStatus) ([]*models.Photo, error) {
	return s.listPhotos(ctx, "sync_status = ?", status)
}

// =====================================================
// Cross-collection operations
// =====================================================

// Delete removes an entity from the local view immediately. Remote
// propagation is the caller's responsibility (enqueue a delete
// mutation separately); deleting an absent record is a no-op.
func (s *Store) Delete(ctx context.Context, t models.EntityType, id string) error {
	table, err := t.Collection()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInvalid, "cannot delete", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to delete "+string(t), err)
	}
	return nil
}

// SetSyncStatus rewrites the sync status of one entity. Owned by the
// sync processor's reconciliation path.
func (s *Store) SetSyncStatus(ctx context.Context, t models.EntityType, id string, status models.SyncStatus) error {
	table, err := t.Collection()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInvalid, "cannot set sync status", err)
	}
	if !status.Valid() {
		return apperrors.New(apperrors.ErrInvalid, "unknown sync status: "+string(status))
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE "+table+" SET sync_status = ? WHERE id = ?", status, id)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to set sync status", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.New(apperrors.ErrNotFound, string(t)+" not found: "+id)
	}
	return nil
}

// RequeueUnsynced re-enqueues every pending entity that has no live
// queue entry, the manual resurrection path for mutations abandoned at
// the retry ceiling. Requeued mutations use a create action: the
// remote create endpoint upserts by id, so it is safe whether the
// original delivery half-succeeded or never happened.
func (s *Store) RequeueUnsynced(ctx context.Context) (int, error) {
	orphanWhere := `sync_status = ? AND NOT EXISTS (
		SELECT 1 FROM sync_queue q WHERE q.entity_type = ? AND q.entity_id = %s.id)`

	count := 0
	requeue := func(e models.Entity) error {
		m, err := syncq.Build(e.EntityKind(), models.ActionCreate, e.EntityID(), e, models.PriorityNormal)
		if err != nil {
			return err
		}
		if err := syncq.Insert(ctx, s.db, m); err != nil {
			return err
		}
		count++
		return nil
	}

	jobs, err := s.listJobs(ctx, fmt.Sprintf(orphanWhere, "jobs"), models.SyncStatusPending, models.EntityJob)
	if err != nil {
		return count, err
	}
	for _, j := range jobs {
		if err := requeue(j); err != nil {
			return count, err
		}
	}

	tasks, err := s.listTasks(ctx, fmt.Sprintf(orphanWhere, "tasks"), models.SyncStatusPending, models.EntityTask)
	if err != nil {
		return count, err
	}
	for _, t := range tasks {
		if err := requeue(t); err != nil {
			return count, err
		}
	}

	customers, err := s.listCustomers(ctx, fmt.Sprintf(orphanWhere, "customers"), models.SyncStatusPending, models.EntityCustomer)
	if err != nil {
		return count, err
	}
	for _, c := range customers {
		if err := requeue(c); err != nil {
			return count, err
		}
	}

	photos, err := s.listPhotos(ctx, fmt.Sprintf(orphanWhere, "photos"), models.SyncStatusPending, models.EntityPhoto)
	if err != nil {
		return count, err
	}
	for _, p := range photos {
		if err := requeue(p); err != nil {
			return count, err
		}
	}

	if count > 0 {
		s.log.WithField("count", count).Info("requeued unsynced entities")
	}
	return count, nil
}

// =====================================================
// App-state operations
// =====================================================

// GetState returns the app-state value for key, or "" if absent.
func (s *Store) GetState(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM app_state WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrStorage, "failed to get app state", err)
	}
	return value, nil
}

// SetState upserts an app-state value.
func (s *Store) SetState(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix())
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to set app state", err)
	}
	return nil
}
