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
	ErrProposalNotFound = errors.New("proposal not found")
	// ErrDuplicateProposal возвращается при попытке второго не отозванного
	// отклика того же фрилансера на проект (частичный UNIQUE-индекс).
	ErrDuplicateProposal   = errors.New("freelancer already has an active proposal")
	ErrProposalNotWithdrawable = errors.New("proposal cannot be withdrawn")
)

type ProposalRepository struct {
	db *sqlx.DB
}

func NewProposalRepository(db *sqlx.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

// Create вставляет отклик. Коллизия кода -> common.ErrCodeCollision,
// повторный активный отклик -> ErrDuplicateProposal.
func (r *ProposalRepository) Create(ctx context.Context, p *models.Proposal) error {
	query := `
		INSERT INTO proposals (code, project_id, freelancer_id, amount, delivery_days, cover_letter, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.Code, p.ProjectID, p.FreelancerID, p.Amount, p.DeliveryDays, p.CoverLetter, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err, "proposals_code_key") {
			return common.ErrCodeCollision
		}
		if common.IsUniqueViolation(err, "proposals_active_per_freelancer") {
			return ErrDuplicateProposal
		}
		return fmt.Errorf("proposal repository: create %w", err)
	}
	return nil
}

func (r *ProposalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	return common.GetByID[models.Proposal](ctx, r.db, "proposals", id, ErrProposalNotFound)
}

// GetActiveByProjectAndFreelancer возвращает не отозванный отклик фрилансера
// на проект, если такой есть.
func (r *ProposalRepository) GetActiveByProjectAndFreelancer(ctx context.Context, projectID, freelancerID uuid.UUID) (*models.Proposal, error) {
	var proposal models.Proposal
	err := r.db.GetContext(ctx, &proposal, `
		SELECT * FROM proposals
		WHERE project_id = $1 AND freelancer_id = $2 AND status <> 'withdrawn'
	`, projectID, freelancerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProposalNotFound
		}
		return nil, fmt.Errorf("proposal repository: get active %w", err)
	}
	return &proposal, nil
}

// ListByProject возвращает отклики проекта.
func (r *ProposalRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Proposal, error) {
	var proposals []models.Proposal
	err := r.db.SelectContext(ctx, &proposals, `
		SELECT * FROM proposals WHERE project_id = $1 ORDER BY created_at ASC
	`, projectID)
	return proposals, err
}

// ListByFreelancer возвращает отклики фрилансера.
func (r *ProposalRepository) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Proposal, error) {
	var proposals []models.Proposal
	err := r.db.SelectContext(ctx, &proposals, `
		SELECT * FROM proposals WHERE freelancer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, freelancerID, limit, offset)
	return proposals, err
}

// Withdraw отзывает отклик владельца. Охранное условие: отзываются только
// ожидающие отклики.
func (r *ProposalRepository) Withdraw(ctx context.Context, id, freelancerID uuid.UUID) (*models.Proposal, error) {
	var proposal models.Proposal
	err := r.db.GetContext(ctx, &proposal, `
		UPDATE proposals SET status = 'withdrawn', updated_at = NOW()
		WHERE id = $1 AND freelancer_id = $2 AND status = 'pending'
		RETURNING *
	`, id, freelancerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProposalNotWithdrawable
		}
		return nil, fmt.Errorf("proposal repository: withdraw %w", err)
	}
	return &proposal, nil
}
