package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/repository/common"
)

var (
	ErrDisputeNotFound = errors.New("dispute not found")
	// ErrProjectNotDisputable возвращается, когда проект нельзя перевести в
	// disputed: он уже в споре либо завершён.
	ErrProjectNotDisputable = errors.New("project cannot be disputed")
	// ErrDisputeFinished возвращается при попытке повторного решения спора.
	ErrDisputeFinished = errors.New("dispute already resolved or closed")
)

type DisputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

// Create атомарно создаёт спор и переводит проект в disputed. Охранное
// условие на статусе проекта гарантирует не более одного активного спора.
func (r *DisputeRepository) Create(ctx context.Context, d *models.Dispute) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE projects SET status = 'disputed', updated_at = NOW()
			WHERE id = $1 AND status IN ('open', 'in_progress')
		`, d.ProjectID)
		if err != nil {
			return fmt.Errorf("dispute repository: freeze project %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrProjectNotDisputable
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO disputes (code, project_id, milestone_id, raised_by, reason, description, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at
		`, d.Code, d.ProjectID, d.MilestoneID, d.RaisedBy, d.Reason, d.Description, d.Status).
			Scan(&d.ID, &d.CreatedAt)
		if err != nil {
			if common.IsUniqueViolation(err, "disputes_code_key") {
				return common.ErrCodeCollision
			}
			return fmt.Errorf("dispute repository: create %w", err)
		}
		return nil
	})
}

func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	return common.GetByID[models.Dispute](ctx, r.db, "disputes", id, ErrDisputeNotFound)
}

// StartReview переводит спор open -> under_review.
func (r *DisputeRepository) StartReview(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := r.db.GetContext(ctx, &d, `
		UPDATE disputes SET status = 'under_review'
		WHERE id = $1 AND status = 'open'
		RETURNING *
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisputeFinished
		}
		return nil, fmt.Errorf("dispute repository: start review %w", err)
	}
	return &d, nil
}

// Finish атомарно завершает спор (resolved или closed) и возвращает проект в
// in_progress. Проект всегда возвращается именно в in_progress, даже если
// спор заморозил его из open: поведение исходной системы сохранено буквально.
func (r *DisputeRepository) Finish(ctx context.Context, id, resolvedBy uuid.UUID, resolution, finalStatus string) (*models.Dispute, error) {
	var d models.Dispute

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &d, `
			UPDATE disputes
			SET status = $4, resolution = $2, resolved_by = $3, resolved_at = NOW()
			WHERE id = $1 AND status IN ('open', 'under_review')
			RETURNING *
		`, id, resolution, resolvedBy, finalStatus)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// Спор либо отсутствует, либо уже завершён.
				var exists bool
				if gerr := tx.GetContext(ctx, &exists, `SELECT TRUE FROM disputes WHERE id = $1`, id); gerr != nil {
					if errors.Is(gerr, sql.ErrNoRows) {
						return ErrDisputeNotFound
					}
					return fmt.Errorf("dispute repository: finish check %w", gerr)
				}
				return ErrDisputeFinished
			}
			return fmt.Errorf("dispute repository: finish %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE projects SET status = 'in_progress', updated_at = NOW()
			WHERE id = $1 AND status = 'disputed'
		`, d.ProjectID)
		if err != nil {
			return fmt.Errorf("dispute repository: unfreeze project %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &d, nil
}

// ListByProject возвращает споры проекта.
func (r *DisputeRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT * FROM disputes WHERE project_id = $1 ORDER BY created_at DESC
	`, projectID)
	return disputes, err
}

// ListOpen возвращает незавершённые споры для админской очереди.
func (r *DisputeRepository) ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT * FROM disputes WHERE status IN ('open', 'under_review')
		ORDER BY created_at ASC LIMIT $1 OFFSET $2
	`, limit, offset)
	return disputes, err
}
