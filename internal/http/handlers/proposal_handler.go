package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

// ProposalHandler обрабатывает предложения фрилансеров.
type ProposalHandler struct {
	projects *service.ProjectService
}

func NewProposalHandler(projects *service.ProjectService) *ProposalHandler {
	return &ProposalHandler{projects: projects}
}

type submitProposalRequest struct {
	Amount       float64 `json:"amount" binding:"required"`
	DeliveryDays int     `json:"delivery_days" binding:"required"`
	CoverLetter  string  `json:"cover_letter" binding:"required"`
}

// Submit подаёт предложение на открытый проект. Доступно фрилансерам.
func (h *ProposalHandler) Submit(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	projectID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req submitProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректное тело запроса"})
		return
	}

	proposal, err := h.projects.SubmitProposal(c.Request.Context(), actor, projectID, service.SubmitProposalInput{
		Amount:       req.Amount,
		DeliveryDays: req.DeliveryDays,
		CoverLetter:  req.CoverLetter,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, proposal)
}

// List возвращает предложения по проекту. Владелец и админ видят все,
// фрилансер только свои.
func (h *ProposalHandler) List(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	projectID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	proposals, err := h.projects.ListProposals(c.Request.Context(), actor, projectID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"proposals": proposals})
}

// Accept принимает предложение. Проект переходит в in_progress,
// остальные предложения отклоняются.
func (h *ProposalHandler) Accept(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	proposalID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	project, proposal, err := h.projects.AcceptProposal(c.Request.Context(), actor, proposalID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project":  project,
		"proposal": proposal,
	})
}

// Withdraw отзывает собственное pending предложение.
func (h *ProposalHandler) Withdraw(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	proposalID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	proposal, err := h.projects.WithdrawProposal(c.Request.Context(), actor, proposalID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, proposal)
}
