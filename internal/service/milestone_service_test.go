package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
)

type milestoneMocks struct {
	milestones *mockMilestoneRepo
	projects   *mockProjectRepo
	proposals  *mockProposalRepo
}

func newMilestoneService(enforceBudget bool) (*MilestoneService, milestoneMocks) {
	m := milestoneMocks{
		milestones: new(mockMilestoneRepo),
		projects:   new(mockProjectRepo),
		proposals:  new(mockProposalRepo),
	}
	svc := NewMilestoneService(m.milestones, m.projects, m.proposals, nil, 5, enforceBudget)
	return svc, m
}

func TestMilestoneService_CreateMilestone_Success(t *testing.T) {
	svc, m := newMilestoneService(false)
	ctx := context.Background()

	client := Actor{ID: uuid.New(), Role: models.UserTypeClient}
	projectID := uuid.New()
	freelancerID := uuid.New()

	m.projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID: projectID, ClientID: client.ID, Title: "Сайт", Status: models.ProjectStatusInProgress,
	}, nil)
	m.milestones.On("Create", ctx, mock.AnythingOfType("*models.Milestone")).Return(nil)
	m.projects.On("GetSelectedFreelancer", ctx, projectID).Return(freelancerID, nil)

	milestone, err := svc.CreateMilestone(ctx, client, projectID, CreateMilestoneInput{
		Title:      "Вёрстка",
		Amount:     500,
		OrderIndex: 1,
	})
	assert.NoError(t, err)
	assert.Equal(t, models.MilestoneStatusPending, milestone.Status)
	assert.NotEmpty(t, milestone.Code)
	m.milestones.AssertExpectations(t)
}

func TestMilestoneService_CreateMilestone_ProjectNotInProgress(t *testing.T) {
	svc, m := newMilestoneService(false)
	ctx := context.Background()

	client := Actor{ID: uuid.New(), Role: models.UserTypeClient}
	projectID := uuid.New()

	m.projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID: projectID, ClientID: client.ID, Status: models.ProjectStatusOpen,
	}, nil)

	_, err := svc.CreateMilestone(ctx, client, projectID, CreateMilestoneInput{
		Title: "Вёрстка", Amount: 500, OrderIndex: 1,
	})
	assert.True(t, apperror.IsInvalidState(err))
}

func TestMilestoneService_CreateMilestone_OrderIndexTaken(t *testing.T) {
	svc, m := newMilestoneService(false)
	ctx := context.Background()

	client := Actor{ID: uuid.New(), Role: models.UserTypeClient}
	projectID := uuid.New()

	m.projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID: projectID, ClientID: client.ID, Status: models.ProjectStatusInProgress,
	}, nil)
	m.milestones.On("Create", ctx, mock.AnythingOfType("*models.Milestone")).
		Return(repository.ErrOrderIndexTaken)

	_, err := svc.CreateMilestone(ctx, client, projectID, CreateMilestoneInput{
		Title: "Вёрстка", Amount: 500, OrderIndex: 1,
	})
	assert.True(t, apperror.IsConflict(err))
}

func TestMilestoneService_CreateMilestone_BudgetExceeded(t *testing.T) {
	svc, m := newMilestoneService(true)
	ctx := context.Background()

	client := Actor{ID: uuid.New(), Role: models.UserTypeClient}
	projectID := uuid.New()
	proposalID := uuid.New()

	m.projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID: projectID, ClientID: client.ID, Status: models.ProjectStatusInProgress,
		SelectedProposalID: &proposalID,
	}, nil)
	m.proposals.On("GetByID", ctx, proposalID).Return(&models.Proposal{
		ID: proposalID, Amount: 1000,
	}, nil)
	m.milestones.On("SumAmounts", ctx, projectID).Return(800.0, nil)

	// 800 уже распределено, ещё 500 не влезает в отклик на 1000.
	_, err := svc.CreateMilestone(ctx, client, projectID, CreateMilestoneInput{
		Title: "Вёрстка", Amount: 500, OrderIndex: 2,
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestMilestoneService_StartMilestone_Success(t *testing.T) {
	svc, m := newMilestoneService(false)
	ctx := context.Background()

	freelancer := Actor{ID: uuid.New(), Role: models.UserTypeFreelancer}
	projectID := uuid.New()
	milestoneID := uuid.New()

	m.milestones.On("GetByID", ctx, milestoneID).Return(&models.Milestone{
		ID: milestoneID, ProjectID: projectID, Title: "Вёрстка", Status: models.MilestoneStatusPending,
	}, nil)
	m.projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID: projectID, ClientID: uuid.New(), Status: models.ProjectStatusInProgress,
	}, nil)
	m.projects.On("GetSelectedFreelancer", ctx, projectID).Return(freelancer.ID, nil)
	m.milestones.On("Start", ctx, milestoneID).Return(&models.Milestone{
		ID: milestoneID, ProjectID: projectID, Title: "Вёрстка", Status: models.MilestoneStatusInProgress,
	}, nil)

	milestone, err := svc.StartMilestone(ctx, freelancer, milestoneID)
	assert.NoError(t, err)
	assert.Equal(t, models.MilestoneStatusInProgress, milestone.Status)
}

func TestMilestoneService_CompleteMilestone_NotSelectedFreelancer(t *testing.T) {
	svc, m := newMilestoneService(false)
	ctx := context.Background()

	stranger := Actor{ID: uuid.New(), Role: models.UserTypeFreelancer}
	projectID := uuid.New()
	milestoneID := uuid.New()

	m.milestones.On("GetByID", ctx, milestoneID).Return(&models.Milestone{
		ID: milestoneID, ProjectID: projectID, Status: models.MilestoneStatusInProgress,
	}, nil)
	m.projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID: projectID, ClientID: uuid.New(), Status: models.ProjectStatusInProgress,
	}, nil)
	m.projects.On("GetSelectedFreelancer", ctx, projectID).Return(uuid.New(), nil)

	_, err := svc.CompleteMilestone(ctx, stranger, milestoneID)
	assert.True(t, apperror.IsForbidden(err))
}

func TestMilestoneService_CompleteMilestone_DisputedProject(t *testing.T) {
	svc, m := newMilestoneService(false)
	ctx := context.Background()

	freelancer := Actor{ID: uuid.New(), Role: models.UserTypeFreelancer}
	projectID := uuid.New()
	milestoneID := uuid.New()

	m.milestones.On("GetByID", ctx, milestoneID).Return(&models.Milestone{
		ID: milestoneID, ProjectID: projectID, Status: models.MilestoneStatusInProgress,
	}, nil)
	m.projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID: projectID, ClientID: uuid.New(), Status: models.ProjectStatusDisputed,
	}, nil)
	m.projects.On("GetSelectedFreelancer", ctx, projectID).Return(freelancer.ID, nil)

	_, err := svc.CompleteMilestone(ctx, freelancer, milestoneID)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestMilestoneService_CompleteMilestone_AlreadyPaid(t *testing.T) {
	svc, m := newMilestoneService(false)
	ctx := context.Background()

	freelancer := Actor{ID: uuid.New(), Role: models.UserTypeFreelancer}
	projectID := uuid.New()
	milestoneID := uuid.New()

	m.milestones.On("GetByID", ctx, milestoneID).Return(&models.Milestone{
		ID: milestoneID, ProjectID: projectID, Status: models.MilestoneStatusPaid,
	}, nil)
	m.projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID: projectID, ClientID: uuid.New(), Status: models.ProjectStatusInProgress,
	}, nil)
	m.projects.On("GetSelectedFreelancer", ctx, projectID).Return(freelancer.ID, nil)
	m.milestones.On("Complete", ctx, milestoneID).Return(nil, repository.ErrMilestoneWrongStatus)

	_, err := svc.CompleteMilestone(ctx, freelancer, milestoneID)
	assert.True(t, apperror.IsInvalidState(err))
}
