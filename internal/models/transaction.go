package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction представляет денежную операцию. Записи append-only: повторная
// попытка оплаты создаёт новую строку, а не мутирует старую.
type Transaction struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	Code             string     `db:"code" json:"code"`
	ProjectID        uuid.UUID  `db:"project_id" json:"project_id"`
	MilestoneID      *uuid.UUID `db:"milestone_id" json:"milestone_id,omitempty"`
	PayerID          uuid.UUID  `db:"payer_id" json:"payer_id"`
	PayeeID          uuid.UUID  `db:"payee_id" json:"payee_id"`
	Amount           float64    `db:"amount" json:"amount"`
	Type             string     `db:"type" json:"type"`
	Status           string     `db:"status" json:"status"`
	GatewayPaymentID *string    `db:"gateway_payment_id" json:"gateway_payment_id,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	CompletedAt      *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}
