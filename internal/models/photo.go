package models

import "time"

// Geo is a geolocation fix attached to a photo at capture time.
type Geo struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty"`
	FixedAt   int64   `json:"fixedAt,omitempty"`
}

// Age returns how old the fix was at the given instant.
func (g Geo) Age(now time.Time) time.Duration {
	return now.Sub(time.Unix(g.FixedAt, 0))
}

// Photo represents a captured image bound to a job or task.
// Blob holds the re-encoded image bytes; photos are immutable once
// uploaded, so the blob never changes after capture.
type Photo struct {
	ID           string     `db:"id" json:"id"`
	JobID        string     `db:"job_id" json:"jobId,omitempty"`
	TaskID       string     `db:"task_id" json:"taskId,omitempty"`
	Blob         []byte     `db:"blob" json:"blob,omitempty"`
	MimeType     string     `db:"mime_type" json:"mimeType"`
	Size         int64      `db:"size" json:"size"`
	CapturedAt   int64      `db:"captured_at" json:"capturedAt"`
	Location     *Geo       `db:"location" json:"location,omitempty"`
	SyncStatus   SyncStatus `db:"sync_status" json:"syncStatus"`
	LastModified int64      `db:"last_modified" json:"lastModified"`
}

// TableName returns the table name for Photo.
func (Photo) TableName() string {
	return "photos"
}

func (p *Photo) EntityID() string       { return p.ID }
func (p *Photo) EntityKind() EntityType { return EntityPhoto }
func (p *Photo) State() SyncStatus      { return p.SyncStatus }
func (p *Photo) SetState(s SyncStatus)  { p.SyncStatus = s }
func (p *Photo) Modified() int64        { return p.LastModified }

// Touch updates the LastModified timestamp.
func (p *Photo) Touch() {
	p.LastModified = time.Now().Unix()
}

// CapturedTime returns the CapturedAt as time.Time.
func (p *Photo) CapturedTime() time.Time {
	return time.Unix(p.CapturedAt, 0)
}
