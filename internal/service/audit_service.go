package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/models"
)

// AuditRepository описывает взаимодействие сервиса с журналом аудита.
type AuditRepository interface {
	Add(ctx context.Context, userID *uuid.UUID, action, entityType string, entityID *uuid.UUID, entityCode *string, details interface{}) error
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.AuditLog, error)
}

// AuditService пишет журнал аудита переходов. Журнал append-only.
type AuditService struct {
	repo AuditRepository
}

// NewAuditService создаёт новый сервис аудита.
func NewAuditService(repo AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Audit добавляет запись о совершённом действии.
func (s *AuditService) Audit(ctx context.Context, userID *uuid.UUID, action, entityType string, entityID uuid.UUID, entityCode string, details interface{}) error {
	var idPtr *uuid.UUID
	if entityID != uuid.Nil {
		idPtr = &entityID
	}
	var codePtr *string
	if entityCode != "" {
		codePtr = &entityCode
	}
	return s.repo.Add(ctx, userID, action, entityType, idPtr, codePtr, details)
}

// History возвращает журнал по конкретной сущности.
func (s *AuditService) History(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.AuditLog, error) {
	return s.repo.ListByEntity(ctx, entityType, entityID)
}
