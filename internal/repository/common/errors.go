package common

import (
	"errors"

	"github.com/lib/pq"
)

// Общие ошибки для всех репозиториев
var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidInput  = errors.New("invalid input")

	// ErrCodeCollision возвращается при нарушении UNIQUE по колонке code:
	// вызывающая сторона генерирует новый код и повторяет вставку.
	ErrCodeCollision = errors.New("code collision")
)

const (
	pqUniqueViolation = "23505"
)

// IsUniqueViolation сообщает, является ли ошибка нарушением UNIQUE-ограничения.
// Если constraint не пустой, дополнительно сверяет имя ограничения.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != pqUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
