package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records API actions for operations and abuse diagnosis. This is
// separate from the character history chain: audit rows are operational,
// may be purged after a retention window, and carry no game semantics.
type AuditLog struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TraceID     string         `gorm:"index:idx_audit_trace;size:36;not null" json:"trace_id"`
	AccountID   *int64         `json:"account_id"`
	CharacterID string         `gorm:"index:idx_audit_char;size:36" json:"character_id"`
	Action      string         `gorm:"size:64;not null" json:"action"`
	Request     datatypes.JSON `json:"request"`
	Response    datatypes.JSON `json:"response"`
	Error       string         `gorm:"type:text" json:"error"`
	IP          string         `gorm:"size:45" json:"ip"`
	DurationMs  int            `json:"duration_ms"`
	CreatedAt   time.Time      `gorm:"index:idx_audit_created;autoCreateTime:milli" json:"created_at"`
}
