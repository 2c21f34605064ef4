package models

import (
	"time"

	"github.com/google/uuid"
)

// CashbackTransaction — запись о начислении или списании кешбэка.
type CashbackTransaction struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	UserID        uuid.UUID  `db:"user_id" json:"user_id"`
	ProjectID     *uuid.UUID `db:"project_id" json:"project_id,omitempty"`
	TransactionID *uuid.UUID `db:"transaction_id" json:"transaction_id,omitempty"`
	Type          string     `db:"type" json:"type"`
	Amount        float64    `db:"amount" json:"amount"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// CashbackSummary — агрегат по кешбэку пользователя.
type CashbackSummary struct {
	Balance            float64               `json:"balance"`
	TotalEarned        float64               `json:"total_earned"`
	TotalUsed          float64               `json:"total_used"`
	RecentTransactions []CashbackTransaction `json:"recent_transactions"`
}
