package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

// ProfileHandler обрабатывает профиль, баланс и кешбэк.
type ProfileHandler struct {
	profiles *service.ProfileService
}

func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Me возвращает профиль текущего пользователя.
func (h *ProfileHandler) Me(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	profile, err := h.profiles.GetProfile(c.Request.Context(), actor.ID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Balance возвращает основной и кешбэк балансы.
func (h *ProfileHandler) Balance(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	profile, err := h.profiles.GetProfile(c.Request.Context(), actor.ID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"balance":          profile.Balance,
		"cashback_balance": profile.CashbackBalance,
	})
}

// CashbackSummary возвращает баланс кешбэка и последние операции.
func (h *ProfileHandler) CashbackSummary(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	summary, err := h.profiles.GetCashbackSummary(c.Request.Context(), actor.ID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

type useCashbackRequest struct {
	Amount    float64    `json:"amount" binding:"required"`
	ProjectID *uuid.UUID `json:"project_id"`
}

// UseCashback списывает кешбэк. Списание атомарное, при нехватке
// средств возвращается ошибка валидации.
func (h *ProfileHandler) UseCashback(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	var req useCashbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректное тело запроса"})
		return
	}

	if err := h.profiles.UseCashback(c.Request.Context(), actor, req.ProjectID, req.Amount); err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "кешбэк списан"})
}
