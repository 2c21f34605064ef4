package models

import (
	"time"

	"github.com/google/uuid"
)

// Milestone — оплачиваемая веха проекта.
// OrderIndex уникален в рамках проекта и задаёт порядок отображения;
// зависимостей исполнения между вехами нет, завершать можно в любом порядке.
type Milestone struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Code        string     `db:"code" json:"code"`
	ProjectID   uuid.UUID  `db:"project_id" json:"project_id"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description,omitempty"`
	Amount      float64    `db:"amount" json:"amount"`
	OrderIndex  int        `db:"order_index" json:"order_index"`
	Status      string     `db:"status" json:"status"`
	DueDate     *time.Time `db:"due_date" json:"due_date,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	PaidAt      *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}
