package models

import (
	"time"

	"github.com/google/uuid"
)

// Dispute — формальное разногласие, замораживающее проект до решения
// администратора.
type Dispute struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Code        string     `db:"code" json:"code"`
	ProjectID   uuid.UUID  `db:"project_id" json:"project_id"`
	MilestoneID *uuid.UUID `db:"milestone_id" json:"milestone_id,omitempty"`
	RaisedBy    uuid.UUID  `db:"raised_by" json:"raised_by"`
	Reason      string     `db:"reason" json:"reason"`
	Description string     `db:"description" json:"description"`
	Status      string     `db:"status" json:"status"`
	Resolution  *string    `db:"resolution" json:"resolution,omitempty"`
	ResolvedBy  *uuid.UUID `db:"resolved_by" json:"resolved_by,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt  *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}

// IsFinished сообщает, завершён ли спор (решён или закрыт).
func (d *Dispute) IsFinished() bool {
	return d.Status == DisputeStatusResolved || d.Status == DisputeStatusClosed
}
