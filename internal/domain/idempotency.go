package domain

import "time"

// Idempotency records the outcome of a previously processed unsafe request,
// keyed by (scope, subject, key). Scope names the operation (for example
// "invites.create"), Subject is the caller identity, and ResourceID points at
// the row the original request produced so a replay can return it without
// re-running side effects.
type Idempotency struct {
	ID         string    `gorm:"type:varchar(36);not null;primaryKey"`
	Scope      string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_scope_subject_key,priority:1"`
	Subject    string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_scope_subject_key,priority:2"`
	Key        string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_scope_subject_key,priority:3"`
	ResourceID uint64    `gorm:"not null"`
	Status     int       `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt  time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
