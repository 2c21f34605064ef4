package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

// DisputeHandler обрабатывает споры по проектам.
type DisputeHandler struct {
	disputes *service.DisputeService
}

func NewDisputeHandler(disputes *service.DisputeService) *DisputeHandler {
	return &DisputeHandler{disputes: disputes}
}

type createDisputeRequest struct {
	Reason      string     `json:"reason" binding:"required"`
	Description string     `json:"description" binding:"required"`
	MilestoneID *uuid.UUID `json:"milestone_id"`
}

type resolveDisputeRequest struct {
	Resolution string `json:"resolution" binding:"required"`
}

// Create открывает спор по проекту. Доступно участникам проекта.
// Проект замораживается в статусе disputed.
func (h *DisputeHandler) Create(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	projectID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req createDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректное тело запроса"})
		return
	}

	dispute, err := h.disputes.CreateDispute(c.Request.Context(), actor, projectID, service.CreateDisputeInput{
		Reason:      req.Reason,
		Description: req.Description,
		MilestoneID: req.MilestoneID,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, dispute)
}

// Get возвращает спор. Доступно участникам проекта и админу.
func (h *DisputeHandler) Get(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	disputeID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	dispute, err := h.disputes.GetDispute(c.Request.Context(), actor, disputeID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dispute)
}

// ListByProject возвращает споры проекта.
func (h *DisputeHandler) ListByProject(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	projectID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	disputes, err := h.disputes.ListProjectDisputes(c.Request.Context(), actor, projectID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"disputes": disputes})
}

// ListOpen возвращает открытые споры. Только для админа.
func (h *DisputeHandler) ListOpen(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	limit, offset := common.GetPagination(c)

	disputes, err := h.disputes.ListOpenDisputes(c.Request.Context(), actor, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"disputes": disputes,
		"limit":    limit,
		"offset":   offset,
	})
}

// StartReview берёт спор в рассмотрение. Только для админа.
func (h *DisputeHandler) StartReview(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	disputeID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	dispute, err := h.disputes.StartReview(c.Request.Context(), actor, disputeID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dispute)
}

// Resolve завершает спор с решением. Проект возвращается в работу.
func (h *DisputeHandler) Resolve(c *gin.Context) {
	h.finish(c, h.disputes.ResolveDispute)
}

// Close закрывает спор без решения по существу. Проект возвращается в работу.
func (h *DisputeHandler) Close(c *gin.Context) {
	h.finish(c, h.disputes.CloseDispute)
}

func (h *DisputeHandler) finish(c *gin.Context, fn func(context.Context, service.Actor, uuid.UUID, string) (*models.Dispute, error)) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	disputeID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req resolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректное тело запроса"})
		return
	}

	dispute, err := fn(c.Request.Context(), actor, disputeID, req.Resolution)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dispute)
}
