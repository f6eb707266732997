package model

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrAuditImmutable is returned when something tries to rewrite or remove an audit entry.
var ErrAuditImmutable = errors.New("audit log entries are append-only")

// AuditLogEntry is an immutable record of one equipment mutation.
type AuditLogEntry struct {
	ID int64 `gorm:"primaryKey" json:"id"`
	// Content is stored as text, not jsonb, so the field order survives the round trip.
	Content   datatypes.JSON `gorm:"type:text;not null" json:"content"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
}

// BeforeCreate stamps entries that arrive without a timestamp.
func (e *AuditLogEntry) BeforeCreate(tx *gorm.DB) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return nil
}

// BeforeUpdate rejects every update.
func (e *AuditLogEntry) BeforeUpdate(tx *gorm.DB) error {
	return ErrAuditImmutable
}

// BeforeDelete rejects every delete.
func (e *AuditLogEntry) BeforeDelete(tx *gorm.DB) error {
	return ErrAuditImmutable
}
