package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-escrow/internal/models"
)

type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Add добавляет запись в журнал. Журнал append-only, записи не изменяются.
func (r *AuditRepository) Add(ctx context.Context, userID *uuid.UUID, action, entityType string, entityID *uuid.UUID, entityCode *string, details interface{}) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		detailsJSON = []byte("{}")
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, entity_code, details)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, userID, action, entityType, entityID, entityCode, detailsJSON)
	if err != nil {
		return fmt.Errorf("audit repository: add %w", err)
	}
	return nil
}

// ListByEntity возвращает журнал по конкретной сущности.
func (r *AuditRepository) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := r.db.SelectContext(ctx, &logs, `
		SELECT * FROM audit_logs WHERE entity_type = $1 AND entity_id = $2 ORDER BY created_at ASC
	`, entityType, entityID)
	return logs, err
}
