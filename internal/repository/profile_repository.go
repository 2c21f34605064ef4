package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/repository/common"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	// ErrInsufficientCashback возвращается, когда охраняемое списание не
	// прошло: баланса кешбэка не хватает.
	ErrInsufficientCashback = errors.New("insufficient cashback balance")
)

type ProfileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return common.GetByID[models.Profile](ctx, r.db, "profiles", id, ErrProfileNotFound)
}

// UseCashback атомарно списывает кешбэк: охраняемый декремент плюс запись в
// журнал кешбэка в одной транзакции.
func (r *ProfileRepository) UseCashback(ctx context.Context, userID uuid.UUID, projectID *uuid.UUID, amount float64) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE profiles SET cashback_balance = cashback_balance - $2, updated_at = NOW()
			WHERE id = $1 AND cashback_balance >= $2
		`, userID, amount)
		if err != nil {
			return fmt.Errorf("profile repository: use cashback %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrInsufficientCashback
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO cashback_transactions (user_id, project_id, type, amount)
			VALUES ($1, $2, 'used', $3)
		`, userID, projectID, amount)
		if err != nil {
			return fmt.Errorf("profile repository: cashback entry %w", err)
		}
		return nil
	})
}

// ListCashback возвращает историю кешбэк-операций пользователя.
func (r *ProfileRepository) ListCashback(ctx context.Context, userID uuid.UUID, limit int) ([]models.CashbackTransaction, error) {
	var entries []models.CashbackTransaction
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM cashback_transactions
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2
	`, userID, limit)
	return entries, err
}
