package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

// MilestoneHandler обрабатывает вехи проектов.
type MilestoneHandler struct {
	milestones *service.MilestoneService
}

func NewMilestoneHandler(milestones *service.MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{milestones: milestones}
}

type createMilestoneRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description *string    `json:"description"`
	Amount      float64    `json:"amount" binding:"required"`
	OrderIndex  int        `json:"order_index"`
	DueDate     *time.Time `json:"due_date"`
}

// Create добавляет веху к проекту в работе. Доступно владельцу проекта.
func (h *MilestoneHandler) Create(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	projectID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req createMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректное тело запроса"})
		return
	}

	milestone, err := h.milestones.CreateMilestone(c.Request.Context(), actor, projectID, service.CreateMilestoneInput{
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
		OrderIndex:  req.OrderIndex,
		DueDate:     req.DueDate,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, milestone)
}

// List возвращает вехи проекта в порядке order_index.
func (h *MilestoneHandler) List(c *gin.Context) {
	if _, ok := common.RequireActor(c); !ok {
		return
	}
	projectID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	milestones, err := h.milestones.ListMilestones(c.Request.Context(), projectID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"milestones": milestones})
}

// Start переводит веху в работу. Доступно выбранному исполнителю.
func (h *MilestoneHandler) Start(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	milestoneID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	milestone, err := h.milestones.StartMilestone(c.Request.Context(), actor, milestoneID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, milestone)
}

// Complete отмечает веху выполненной. Доступно выбранному исполнителю.
func (h *MilestoneHandler) Complete(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	milestoneID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	milestone, err := h.milestones.CompleteMilestone(c.Request.Context(), actor, milestoneID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, milestone)
}
