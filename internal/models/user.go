package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile представляет участника площадки. Балансы меняются только
// атомарными инкрементами на стороне базы, напрямую не перезаписываются.
type Profile struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Email           string    `db:"email" json:"email"`
	FullName        string    `db:"full_name" json:"full_name"`
	UserType        string    `db:"user_type" json:"user_type"`
	Balance         float64   `db:"balance" json:"balance"`
	CashbackBalance float64   `db:"cashback_balance" json:"cashback_balance"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// IsAdmin сообщает, является ли пользователь администратором.
func (p *Profile) IsAdmin() bool {
	return p.UserType == UserTypeAdmin
}
