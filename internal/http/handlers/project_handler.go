package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

// ProjectHandler обрабатывает запросы к проектам.
type ProjectHandler struct {
	projects *service.ProjectService
}

func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

type createProjectRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description" binding:"required"`
	BudgetMin   *float64   `json:"budget_min"`
	BudgetMax   *float64   `json:"budget_max"`
	Deadline    *time.Time `json:"deadline"`
}

// Create создаёт проект. Доступно клиентам.
func (h *ProjectHandler) Create(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректное тело запроса"})
		return
	}

	project, err := h.projects.CreateProject(c.Request.Context(), actor, service.CreateProjectInput{
		Title:       req.Title,
		Description: req.Description,
		BudgetMin:   req.BudgetMin,
		BudgetMax:   req.BudgetMax,
		Deadline:    req.Deadline,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, project)
}

// Get возвращает проект с предложениями. Чужие предложения видят только
// владелец и админ.
func (h *ProjectHandler) Get(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	projectID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	project, err := h.projects.GetProject(c.Request.Context(), actor, projectID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// List возвращает список проектов с пагинацией.
func (h *ProjectHandler) List(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	limit, offset := common.GetPagination(c)

	projects, err := h.projects.ListProjects(c.Request.Context(), actor, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"projects": projects,
		"limit":    limit,
		"offset":   offset,
	})
}

// Complete переводит проект из in_progress в completed.
func (h *ProjectHandler) Complete(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	projectID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	project, err := h.projects.CompleteProject(c.Request.Context(), actor, projectID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// Cancel отменяет открытый проект.
func (h *ProjectHandler) Cancel(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	projectID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	project, err := h.projects.CancelProject(c.Request.Context(), actor, projectID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}
