package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog — запись журнала действий. Журнал append-only.
type AuditLog struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	UserID     *uuid.UUID      `db:"user_id" json:"user_id,omitempty"`
	Action     string          `db:"action" json:"action"`
	EntityType string          `db:"entity_type" json:"entity_type"`
	EntityID   *uuid.UUID      `db:"entity_id" json:"entity_id,omitempty"`
	EntityCode *string         `db:"entity_code" json:"entity_code,omitempty"`
	Details    json.RawMessage `db:"details" json:"details,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
