package models

import (
	"time"

	"github.com/google/uuid"
)

// Project описывает проект клиента. Статус меняют только машины состояний
// предложений и споров; терминальные статусы: completed, cancelled.
type Project struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	Code               string     `db:"code" json:"code"`
	ClientID           uuid.UUID  `db:"client_id" json:"client_id"`
	Title              string     `db:"title" json:"title"`
	Description        string     `db:"description" json:"description"`
	BudgetMin          *float64   `db:"budget_min" json:"budget_min,omitempty"`
	BudgetMax          *float64   `db:"budget_max" json:"budget_max,omitempty"`
	Deadline           *time.Time `db:"deadline" json:"deadline,omitempty"`
	Status             string     `db:"status" json:"status"`
	SelectedProposalID *uuid.UUID `db:"selected_proposal_id" json:"selected_proposal_id,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`

	Proposals []Proposal `json:"proposals,omitempty"`
}

// IsTerminal сообщает, достиг ли проект терминального статуса.
func (p *Project) IsTerminal() bool {
	return p.Status == ProjectStatusCompleted || p.Status == ProjectStatusCancelled
}

// Proposal представляет отклик фрилансера на проект.
type Proposal struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	ProjectID    uuid.UUID `db:"project_id" json:"project_id"`
	FreelancerID uuid.UUID `db:"freelancer_id" json:"freelancer_id"`
	Amount       float64   `db:"amount" json:"amount"`
	DeliveryDays int       `db:"delivery_days" json:"delivery_days"`
	CoverLetter  string    `db:"cover_letter" json:"cover_letter"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
