package models

import "time"

// Customer represents a client the jobs are performed for.
type Customer struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email,omitempty"`
	Phone        string     `db:"phone" json:"phone,omitempty"`
	Address      string     `db:"address" json:"address,omitempty"`
	SyncStatus   SyncStatus `db:"sync_status" json:"syncStatus"`
	LastModified int64      `db:"last_modified" json:"lastModified"`
}

// TableName returns the table name for Customer.
func (Customer) TableName() string {
	return "customers"
}

func (c *Customer) EntityID() string       { return c.ID }
func (c *Customer) EntityKind() EntityType { return EntityCustomer }
func (c *Customer) State() SyncStatus      { return c.SyncStatus }
func (c *Customer) SetState(s SyncStatus)  { c.SyncStatus = s }
func (c *Customer) Modified() int64        { return c.LastModified }

// Touch updates the LastModified timestamp.
func (c *Customer) Touch() {
	c.LastModified = time.Now().Unix()
}
