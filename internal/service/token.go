package service

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/models"
)

// Actor — аутентифицированный инициатор операции. Заполняется из клеймов
// access токена в middleware и передаётся сервисам явно.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// IsAdmin сообщает, является ли инициатор администратором.
func (a Actor) IsAdmin() bool { return a.Role == models.UserTypeAdmin }

// IsClient сообщает, является ли инициатор клиентом.
func (a Actor) IsClient() bool { return a.Role == models.UserTypeClient }

// IsFreelancer сообщает, является ли инициатор фрилансером.
func (a Actor) IsFreelancer() bool { return a.Role == models.UserTypeFreelancer }

// TokenManager проверяет access токены, выпущенные внешним identity
// provider. Сервис сам токены не выпускает и учётные данные не хранит.
type TokenManager struct {
	secret []byte
}

// NewTokenManager создаёт менеджер токенов.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

// ParseAccess извлекает userID и роль из access токена.
func (m *TokenManager) ParseAccess(token string) (uuid.UUID, string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		return uuid.Nil, "", err
	}
	if !parsed.Valid {
		return uuid.Nil, "", jwt.ErrTokenInvalidClaims
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, "", jwt.ErrTokenInvalidClaims
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, "", jwt.ErrTokenInvalidClaims
	}

	role, _ := claims["role"].(string)

	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, "", err
	}

	return userID, role, nil
}
