package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Notification — уведомление пользователя. Доставка best-effort: сбой
// создания уведомления никогда не откатывает основной переход.
type Notification struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    uuid.UUID       `db:"user_id" json:"user_id"`
	Type      string          `db:"type" json:"type"`
	Title     string          `db:"title" json:"title"`
	Message   string          `db:"message" json:"message"`
	Link      *string         `db:"link" json:"link,omitempty"`
	Metadata  json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	IsRead    bool            `db:"is_read" json:"is_read"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
