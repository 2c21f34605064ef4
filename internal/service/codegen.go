package service

import (
	"errors"

	"github.com/ignatzorin/freelance-escrow/internal/code"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/repository/common"
)

// withUniqueCode выполняет вставку с только что сгенерированным кодом и
// повторяет её при коллизии уникального кода. Уникальность обеспечивает
// ограничение в базе, здесь только ограниченное число повторов.
func withUniqueCode(maxAttempts int, insert func(code string) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = insert(code.Generate())
		if !errors.Is(err, common.ErrCodeCollision) {
			return err
		}
	}

	return apperror.Wrap(err, apperror.ErrCodeConflict, "не удалось сгенерировать уникальный код")
}
