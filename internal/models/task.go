package models

import "time"

// TaskStatus represents the completion state of a task.
type TaskStatus string

const (
	TaskStatusOpen TaskStatus = "open"
	TaskStatusDone TaskStatus = "done"
)

// Task represents a single work item within a job.
type Task struct {
	ID           string     `db:"id" json:"id"`
	JobID        string     `db:"job_id" json:"jobId,omitempty"`
	Title        string     `db:"title" json:"title"`
	Status       TaskStatus `db:"status" json:"status"`
	DueDate      int64      `db:"due_date" json:"dueDate,omitempty"`
	SyncStatus   SyncStatus `db:"sync_status" json:"syncStatus"`
	LastModified int64      `db:"last_modified" json:"lastModified"`
}

// TableName returns the table name for Task.
func (Task) TableName() string {
	return "tasks"
}

func (t *Task) EntityID() string       { return t.ID }
func (t *Task) EntityKind() EntityType { return EntityTask }
func (t *Task) State() SyncStatus      { return t.SyncStatus }
func (t *Task) SetState(s SyncStatus)  { t.SyncStatus = s }
func (t *Task) Modified() int64        { return t.LastModified }

// Touch updates the LastModified timestamp.
func (t *Task) Touch() {
	t.LastModified = time.Now().Unix()
}
