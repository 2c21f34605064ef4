package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
)

func TestProfileService_GetCashbackSummary(t *testing.T) {
	profiles := new(mockProfileRepo)
	svc := NewProfileService(profiles, nil)
	ctx := context.Background()
	userID := uuid.New()

	profiles.On("GetByID", ctx, userID).Return(&models.Profile{
		ID: userID, CashbackBalance: 15,
	}, nil)
	profiles.On("ListCashback", ctx, userID, 50).Return([]models.CashbackTransaction{
		{Type: models.CashbackTypeEarned, Amount: 20},
		{Type: models.CashbackTypeUsed, Amount: 5},
	}, nil)

	summary, err := svc.GetCashbackSummary(ctx, userID)
	assert.NoError(t, err)
	assert.Equal(t, float64(15), summary.Balance)
	assert.Equal(t, float64(20), summary.TotalEarned)
	assert.Equal(t, float64(5), summary.TotalUsed)
	assert.Len(t, summary.RecentTransactions, 2)
}

func TestProfileService_UseCashback_Insufficient(t *testing.T) {
	profiles := new(mockProfileRepo)
	svc := NewProfileService(profiles, nil)
	ctx := context.Background()
	actor := Actor{ID: uuid.New(), Role: models.UserTypeClient}

	profiles.On("UseCashback", ctx, actor.ID, (*uuid.UUID)(nil), float64(100)).
		Return(repository.ErrInsufficientCashback)

	err := svc.UseCashback(ctx, actor, nil, 100)
	assert.True(t, apperror.IsValidation(err))
}

func TestProfileService_UseCashback_InvalidAmount(t *testing.T) {
	profiles := new(mockProfileRepo)
	svc := NewProfileService(profiles, nil)
	ctx := context.Background()
	actor := Actor{ID: uuid.New(), Role: models.UserTypeClient}

	err := svc.UseCashback(ctx, actor, nil, 0)
	assert.True(t, apperror.IsValidation(err))

	err = svc.UseCashback(ctx, actor, nil, -10)
	assert.True(t, apperror.IsValidation(err))
}

func TestProfileService_GetProfile_NotFound(t *testing.T) {
	profiles := new(mockProfileRepo)
	svc := NewProfileService(profiles, nil)
	ctx := context.Background()
	userID := uuid.New()

	profiles.On("GetByID", ctx, userID).Return(nil, repository.ErrProfileNotFound)

	_, err := svc.GetProfile(ctx, userID)
	assert.True(t, apperror.IsNotFound(err))
}
