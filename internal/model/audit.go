package model

import "time"

type AuditAction string

const (
	AuditCreate     AuditAction = "CREATE"
	AuditUpdate     AuditAction = "UPDATE"
	AuditSoftDelete AuditAction = "SOFT_DELETE"
	AuditHardDelete AuditAction = "HARD_DELETE"
)

func (a AuditAction) Valid() bool {
	switch a {
	case AuditCreate, AuditUpdate, AuditSoftDelete, AuditHardDelete:
		return true
	}
	return false
}

// Changes is the snapshot payload stored with an audit entry. For updates
// it maps field name to {"old": ..., "new": ...}.
type Changes map[string]any

// FieldChange builds the old/new pair recorded for one changed field.
func FieldChange(old, new any) map[string]any {
	return map[string]any{"old": old, "new": new}
}

// DeletedChange is the payload written for both soft and hard deletes.
func DeletedChange() Changes {
	return Changes{"deleted": FieldChange(false, true)}
}

// AuditLogEntry is one immutable record of a completed mutation. Entries
// are only ever inserted, never updated or deleted.
type AuditLogEntry struct {
	ID         int         `json:"id"`
	ActorID    *int        `json:"actor_id"`
	Action     AuditAction `json:"action"`
	EntityType string      `json:"entity_type"`
	EntityID   string      `json:"entity_id"`
	EntityRepr string      `json:"entity_repr"`
	Changes    Changes     `json:"changes"`
	Path       string      `json:"path"`
	Method     string      `json:"method"`
	SourceIP   string      `json:"source_ip"`
	CreatedAt  time.Time   `json:"created_at"`
}
