package common

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/http/middleware"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

// CurrentActor извлекает аутентифицированного пользователя из контекста.
// Возвращает false, если AuthMiddleware не отработал.
func CurrentActor(c *gin.Context) (service.Actor, bool) {
	rawID, ok := c.Get(middleware.ContextUserIDKey)
	if !ok {
		return service.Actor{}, false
	}
	userID, ok := rawID.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return service.Actor{}, false
	}

	role := ""
	if rawRole, ok := c.Get(middleware.ContextRoleKey); ok {
		role, _ = rawRole.(string)
	}

	return service.Actor{ID: userID, Role: role}, true
}

// RequireActor возвращает актора или отправляет 401 и завершает запрос.
func RequireActor(c *gin.Context) (service.Actor, bool) {
	actor, ok := CurrentActor(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "требуется авторизация"})
		return service.Actor{}, false
	}
	return actor, true
}

// ParseUUIDParam парсит URL параметр как UUID. При ошибке отвечает 400.
func ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": "параметр " + name + " должен быть валидным UUID",
		})
		return uuid.Nil, false
	}
	return id, true
}

// ParseIntQuery читает целочисленный query параметр с дефолтом.
func ParseIntQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// GetPagination возвращает limit и offset из query. Лимит 1..100, по умолчанию 20.
func GetPagination(c *gin.Context) (limit, offset int) {
	limit = ParseIntQuery(c, "limit", 20)
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset = ParseIntQuery(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Fail передаёт ошибку сервиса в централизованный error handler.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
