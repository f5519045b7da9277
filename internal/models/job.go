package models

import "time"

// JobStatus represents the workflow state of a job.
type JobStatus string

const (
	JobStatusQuoted     JobStatus = "quoted"
	JobStatusScheduled  JobStatus = "scheduled"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Job represents a unit of field work for a customer.
type Job struct {
	ID            string     `db:"id" json:"id"`
	Title         string     `db:"title" json:"title"`
	Status        JobStatus  `db:"status" json:"status"`
	CustomerID    string     `db:"customer_id" json:"customerId,omitempty"`
	ScheduledDate int64      `db:"scheduled_date" json:"scheduledDate,omitempty"`
	Value         float64    `db:"value" json:"value,omitempty"`
	Notes         string     `db:"notes" json:"notes,omitempty"`
	SyncStatus    SyncStatus `db:"sync_status" json:"syncStatus"`
	LastModified  int64      `db:"last_modified" json:"lastModified"`
}

// TableName returns the table name for Job.
func (Job) TableName() string {
	return "jobs"
}

func (j *Job) EntityID() string       { return j.ID }
func (j *Job) EntityKind() EntityType { return EntityJob }
func (j *Job) State() SyncStatus      { return j.SyncStatus }
func (j *Job) SetState(s SyncStatus)  { j.SyncStatus = s }
func (j *Job) Modified() int64        { return j.LastModified }

// Touch updates the LastModified timestamp.
func (j *Job) Touch() {
	j.LastModified = time.Now().Unix()
}

// ScheduledTime returns the ScheduledDate as time.Time.
func (j *Job) ScheduledTime() time.Time {
	return time.Unix(j.ScheduledDate, 0)
}
