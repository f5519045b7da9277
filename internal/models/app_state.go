package models

// AppState is an opaque key/value row used for small bits of client
// state (last sync time, last drain result) that do not belong to any
// entity collection.
type AppState struct {
	Key       string `db:"key" json:"key"`
	Value     string `db:"value" json:"value"`
	UpdatedAt int64  `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for AppState.
func (AppState) TableName() string {
	return "app_state"
}

// Well-known app-state keys.
const (
	StateLastSyncAt  = "last_sync_at"
	StateLastResult  = "last_sync_result"
	StateClientID    = "client_id"
)
