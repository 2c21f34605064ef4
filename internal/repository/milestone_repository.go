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
	ErrMilestoneNotFound = errors.New("milestone not found")
	// ErrOrderIndexTaken возвращается при занятом order_index внутри проекта.
	ErrOrderIndexTaken = errors.New("order index already taken")
	// ErrMilestoneWrongStatus возвращается, когда охраняемый переход не
	// сработал: веха уже не в допустимом исходном статусе.
	ErrMilestoneWrongStatus = errors.New("milestone is not in an allowed status")
)

type MilestoneRepository struct {
	db *sqlx.DB
}

func NewMilestoneRepository(db *sqlx.DB) *MilestoneRepository {
	return &MilestoneRepository{db: db}
}

// Create вставляет веху. Коллизия кода -> common.ErrCodeCollision,
// занятый order_index -> ErrOrderIndexTaken.
func (r *MilestoneRepository) Create(ctx context.Context, m *models.Milestone) error {
	query := `
		INSERT INTO milestones (code, project_id, title, description, amount, order_index, status, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		m.Code, m.ProjectID, m.Title, m.Description, m.Amount, m.OrderIndex, m.Status, m.DueDate).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		if common.IsUniqueViolation(err, "milestones_code_key") {
			return common.ErrCodeCollision
		}
		if common.IsUniqueViolation(err, "milestones_project_id_order_index_key") {
			return ErrOrderIndexTaken
		}
		return fmt.Errorf("milestone repository: create %w", err)
	}
	return nil
}

func (r *MilestoneRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	return common.GetByID[models.Milestone](ctx, r.db, "milestones", id, ErrMilestoneNotFound)
}

// ListByProject возвращает вехи проекта в порядке order_index.
func (r *MilestoneRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Milestone, error) {
	var milestones []models.Milestone
	err := r.db.SelectContext(ctx, &milestones, `
		SELECT * FROM milestones WHERE project_id = $1 ORDER BY order_index ASC
	`, projectID)
	return milestones, err
}

// SumAmounts возвращает сумму всех вех проекта.
func (r *MilestoneRepository) SumAmounts(ctx context.Context, projectID uuid.UUID) (float64, error) {
	var sum float64
	err := r.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(amount), 0) FROM milestones WHERE project_id = $1
	`, projectID)
	if err != nil {
		return 0, fmt.Errorf("milestone repository: sum amounts %w", err)
	}
	return sum, nil
}

// Start переводит веху pending -> in_progress.
func (r *MilestoneRepository) Start(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	var m models.Milestone
	err := r.db.GetContext(ctx, &m, `
		UPDATE milestones SET status = 'in_progress'
		WHERE id = $1 AND status = 'pending'
		RETURNING *
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMilestoneWrongStatus
		}
		return nil, fmt.Errorf("milestone repository: start %w", err)
	}
	return &m, nil
}

// Complete переводит веху в completed. Исходным статусом допускаются и
// pending, и in_progress: веха может быть сдана без явного старта.
func (r *MilestoneRepository) Complete(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	var m models.Milestone
	err := r.db.GetContext(ctx, &m, `
		UPDATE milestones SET status = 'completed', completed_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'in_progress')
		RETURNING *
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMilestoneWrongStatus
		}
		return nil, fmt.Errorf("milestone repository: complete %w", err)
	}
	return &m, nil
}
