package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/event"
	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
	"github.com/ignatzorin/freelance-escrow/internal/validation"
)

// ProfileRepository описывает взаимодействие сервисов с хранилищем профилей.
type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	UseCashback(ctx context.Context, userID uuid.UUID, projectID *uuid.UUID, amount float64) error
	ListCashback(ctx context.Context, userID uuid.UUID, limit int) ([]models.CashbackTransaction, error)
}

// ProfileService отвечает за балансы и кешбэк пользователя.
type ProfileService struct {
	profiles   ProfileRepository
	dispatcher *Dispatcher
}

// NewProfileService создаёт сервис профилей.
func NewProfileService(profiles ProfileRepository, dispatcher *Dispatcher) *ProfileService {
	return &ProfileService{profiles: profiles, dispatcher: dispatcher}
}

// GetProfile возвращает профиль пользователя с балансами.
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить профиль")
	}
	return profile, nil
}

// GetCashbackSummary возвращает баланс кешбэка с историей операций.
func (s *ProfileService) GetCashbackSummary(ctx context.Context, userID uuid.UUID) (*models.CashbackSummary, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries, err := s.profiles.ListCashback(ctx, userID, 50)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить историю кешбэка")
	}

	summary := &models.CashbackSummary{
		Balance:            profile.CashbackBalance,
		RecentTransactions: entries,
	}
	for _, entry := range entries {
		switch entry.Type {
		case models.CashbackTypeEarned:
			summary.TotalEarned += entry.Amount
		case models.CashbackTypeUsed:
			summary.TotalUsed += entry.Amount
		}
	}

	return summary, nil
}

// UseCashback списывает кешбэк пользователя. Списание атомарно охраняется
// текущим балансом.
func (s *ProfileService) UseCashback(ctx context.Context, actor Actor, projectID *uuid.UUID, amount float64) error {
	if err := validation.ValidateAmount("сумма списания", amount); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	err := s.profiles.UseCashback(ctx, actor.ID, projectID, amount)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientCashback) {
			return apperror.New(apperror.ErrCodeValidation, "недостаточно кешбэка")
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось списать кешбэк")
	}

	s.dispatcher.Dispatch(ctx, []event.Event{{
		Type:    event.TypeCashbackUsed,
		ActorID: &actor.ID,
		Audit: event.AuditRecord{
			Action:     "cashback_used",
			EntityType: "profile",
			EntityID:   actor.ID,
		},
		Payload: event.Payload{
			ProjectID: projectID,
			Amount:    event.Amount(amount),
		},
	}})

	return nil
}

// ListCashback возвращает историю кешбэк-операций.
func (s *ProfileService) ListCashback(ctx context.Context, userID uuid.UUID, limit int) ([]models.CashbackTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.profiles.ListCashback(ctx, userID, limit)
}
