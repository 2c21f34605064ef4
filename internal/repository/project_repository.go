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
	ErrProjectNotFound = errors.New("project not found")
	// ErrProjectNotOpen возвращается, когда охраняемое обновление статуса не
	// сработало: проект уже не в ожидаемом статусе (проигранная гонка).
	ErrProjectNotOpen     = errors.New("project is not open")
	ErrProposalNotPending = errors.New("proposal is not pending")
	ErrStatusConflict     = errors.New("project status conflict")
)

type ProjectRepository struct {
	db *sqlx.DB
}

func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create вставляет проект. При коллизии кода возвращает common.ErrCodeCollision.
func (r *ProjectRepository) Create(ctx context.Context, p *models.Project) error {
	query := `
		INSERT INTO projects (code, client_id, title, description, budget_min, budget_max, deadline, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.Code, p.ClientID, p.Title, p.Description, p.BudgetMin, p.BudgetMax, p.Deadline, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err, "projects_code_key") {
			return common.ErrCodeCollision
		}
		return fmt.Errorf("project repository: create %w", err)
	}
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return common.GetByID[models.Project](ctx, r.db, "projects", id, ErrProjectNotFound)
}

func (r *ProjectRepository) GetByCode(ctx context.Context, code string) (*models.Project, error) {
	return common.GetByField[models.Project](ctx, r.db, "projects", "code", code, ErrProjectNotFound)
}

// GetWithProposals возвращает проект вместе со всеми откликами.
func (r *ProjectRepository) GetWithProposals(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	project, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &project.Proposals, `
		SELECT * FROM proposals WHERE project_id = $1 ORDER BY created_at ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("project repository: list proposals %w", err)
	}
	return project, nil
}

// AcceptProposal атомарно принимает отклик: проект open -> in_progress с
// фиксацией выбранного отклика, отклик -> accepted, остальные -> rejected.
// Охранное условие status='open' гарантирует, что из двух конкурентных
// вызовов выигрывает ровно один.
func (r *ProjectRepository) AcceptProposal(ctx context.Context, projectID, proposalID uuid.UUID) (*models.Project, *models.Proposal, error) {
	var (
		project  models.Project
		proposal models.Proposal
	)

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &proposal, `
			SELECT * FROM proposals WHERE id = $1 AND project_id = $2 FOR UPDATE
		`, proposalID, projectID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrProposalNotFound
			}
			return fmt.Errorf("project repository: lock proposal %w", err)
		}
		if proposal.Status != models.ProposalStatusPending {
			return ErrProposalNotPending
		}

		err = tx.GetContext(ctx, &project, `
			UPDATE projects
			SET status = 'in_progress', selected_proposal_id = $2, updated_at = NOW()
			WHERE id = $1 AND status = 'open'
			RETURNING id, code, client_id, title, description, budget_min, budget_max,
			          deadline, status, selected_proposal_id, created_at, updated_at
		`, projectID, proposalID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrProjectNotOpen
			}
			return fmt.Errorf("project repository: accept update project %w", err)
		}

		err = tx.GetContext(ctx, &proposal, `
			UPDATE proposals SET status = 'accepted', updated_at = NOW()
			WHERE id = $1
			RETURNING *
		`, proposalID)
		if err != nil {
			return fmt.Errorf("project repository: accept update proposal %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE proposals SET status = 'rejected', updated_at = NOW()
			WHERE project_id = $1 AND id <> $2 AND status = 'pending'
		`, projectID, proposalID)
		if err != nil {
			return fmt.Errorf("project repository: reject siblings %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &project, &proposal, nil
}

// UpdateStatusGuarded переводит проект из ожидаемого статуса в новый.
// Возвращает ErrStatusConflict, если проект уже не в статусе from.
func (r *ProjectRepository) UpdateStatusGuarded(ctx context.Context, id uuid.UUID, from, to string) (*models.Project, error) {
	var project models.Project
	err := r.db.GetContext(ctx, &project, `
		UPDATE projects SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING id, code, client_id, title, description, budget_min, budget_max,
		          deadline, status, selected_proposal_id, created_at, updated_at
	`, id, from, to)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStatusConflict
		}
		return nil, fmt.Errorf("project repository: update status %w", err)
	}
	return &project, nil
}

// GetSelectedFreelancer возвращает фрилансера принятого отклика проекта.
func (r *ProjectRepository) GetSelectedFreelancer(ctx context.Context, projectID uuid.UUID) (uuid.UUID, error) {
	var freelancerID uuid.UUID
	err := r.db.GetContext(ctx, &freelancerID, `
		SELECT p.freelancer_id
		FROM projects pr
		JOIN proposals p ON p.id = pr.selected_proposal_id
		WHERE pr.id = $1
	`, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, ErrProposalNotFound
		}
		return uuid.Nil, fmt.Errorf("project repository: selected freelancer %w", err)
	}
	return freelancerID, nil
}

// ListByClient возвращает проекты клиента.
func (r *ProjectRepository) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.SelectContext(ctx, &projects, `
		SELECT * FROM projects WHERE client_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, clientID, limit, offset)
	return projects, err
}
