package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/repository/common"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrTransactionCompleted возвращается при повторном подтверждении уже
	// завершённой транзакции: баланс при этом не трогается.
	ErrTransactionCompleted = errors.New("transaction already completed")
	// ErrTransactionNotPending возвращается, когда транзакция в статусе,
	// из которого подтверждение или отказ невозможны.
	ErrTransactionNotPending = errors.New("transaction is not pending")
)

type TransactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create вставляет новую транзакцию (pending). Повторная попытка оплаты вехи
// создаёт новую строку, прежние строки не мутируются.
func (r *TransactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	query := `
		INSERT INTO transactions (code, project_id, milestone_id, payer_id, payee_id, amount, type, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		t.Code, t.ProjectID, t.MilestoneID, t.PayerID, t.PayeeID, t.Amount, t.Type, t.Status).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if common.IsUniqueViolation(err, "transactions_code_key") {
			return common.ErrCodeCollision
		}
		return fmt.Errorf("transaction repository: create %w", err)
	}
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	return common.GetByID[models.Transaction](ctx, r.db, "transactions", id, ErrTransactionNotFound)
}

// GetByGatewayID находит транзакцию по внешнему идентификатору платежа.
func (r *TransactionRepository) GetByGatewayID(ctx context.Context, gatewayID string) (*models.Transaction, error) {
	return common.GetByField[models.Transaction](ctx, r.db, "transactions", "gateway_payment_id", gatewayID, ErrTransactionNotFound)
}

// SetGatewayRef привязывает внешний идентификатор к ожидающей транзакции.
func (r *TransactionRepository) SetGatewayRef(ctx context.Context, id uuid.UUID, gatewayID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET gateway_payment_id = $2 WHERE id = $1 AND status = 'pending'
	`, id, gatewayID)
	if err != nil {
		return fmt.Errorf("transaction repository: set gateway ref %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTransactionNotPending
	}
	return nil
}

// Confirm атомарно завершает платёж: транзакция -> completed, веха -> paid,
// баланс получателя увеличивается одним арифметическим UPDATE, плательщику
// начисляется кешбэк по ставке cashbackRate. Охранное условие на статусе
// транзакции делает операцию идемпотентной: повторная доставка webhook
// получает ErrTransactionCompleted и ничего не меняет.
func (r *TransactionRepository) Confirm(ctx context.Context, id uuid.UUID, gatewayID string, cashbackRate float64) (*models.Transaction, float64, error) {
	var (
		t        models.Transaction
		cashback float64
	)

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &t, `
			UPDATE transactions
			SET status = 'completed',
			    gateway_payment_id = COALESCE(NULLIF($2, ''), gateway_payment_id),
			    completed_at = NOW()
			WHERE id = $1 AND status IN ('pending', 'processing')
			RETURNING *
		`, id, gatewayID)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("transaction repository: confirm update %w", err)
			}
			// Охрана не сработала: выясняем, завершена транзакция или её нет.
			var status string
			if gerr := tx.GetContext(ctx, &status, `SELECT status FROM transactions WHERE id = $1`, id); gerr != nil {
				if errors.Is(gerr, sql.ErrNoRows) {
					return ErrTransactionNotFound
				}
				return fmt.Errorf("transaction repository: confirm status check %w", gerr)
			}
			if status == models.TransactionStatusCompleted {
				return ErrTransactionCompleted
			}
			return ErrTransactionNotPending
		}

		if t.MilestoneID != nil {
			_, err = tx.ExecContext(ctx, `
				UPDATE milestones SET status = 'paid', paid_at = NOW()
				WHERE id = $1 AND status = 'completed'
			`, *t.MilestoneID)
			if err != nil {
				return fmt.Errorf("transaction repository: mark milestone paid %w", err)
			}
		}

		// Начисление получателю: единственный атомарный инкремент, никаких
		// read-modify-write в два запроса.
		_, err = tx.ExecContext(ctx, `
			UPDATE profiles SET balance = balance + $2, updated_at = NOW() WHERE id = $1
		`, t.PayeeID, t.Amount)
		if err != nil {
			return fmt.Errorf("transaction repository: credit payee %w", err)
		}

		if cashbackRate > 0 {
			cashback = math.Round(t.Amount*cashbackRate*100) / 100
		}
		if cashback > 0 {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO cashback_transactions (user_id, project_id, transaction_id, type, amount)
				VALUES ($1, $2, $3, 'earned', $4)
			`, t.PayerID, t.ProjectID, t.ID, cashback)
			if err != nil {
				return fmt.Errorf("transaction repository: cashback entry %w", err)
			}
			_, err = tx.ExecContext(ctx, `
				UPDATE profiles SET cashback_balance = cashback_balance + $2, updated_at = NOW() WHERE id = $1
			`, t.PayerID, cashback)
			if err != nil {
				return fmt.Errorf("transaction repository: cashback credit %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return &t, cashback, nil
}

// Fail помечает транзакцию неуспешной по сигналу шлюза. Балансы и вехи не
// трогаются.
func (r *TransactionRepository) Fail(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.GetContext(ctx, &t, `
		UPDATE transactions SET status = 'failed'
		WHERE id = $1 AND status IN ('pending', 'processing')
		RETURNING *
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotPending
		}
		return nil, fmt.Errorf("transaction repository: fail %w", err)
	}
	return &t, nil
}

// ListByUser возвращает историю транзакций, где пользователь плательщик или
// получатель.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT * FROM transactions
		WHERE payer_id = $1 OR payee_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return transactions, err
}
