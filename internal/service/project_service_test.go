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

type mockProjectRepo struct {
	mock.Mock
}

func (m *mockProjectRepo) Create(ctx context.Context, p *models.Project) error {
	args := m.Called(ctx, p)
	if args.Error(0) == nil {
		p.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *mockProjectRepo) GetWithProposals(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *mockProjectRepo) AcceptProposal(ctx context.Context, projectID, proposalID uuid.UUID) (*models.Project, *models.Proposal, error) {
	args := m.Called(ctx, projectID, proposalID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Project), args.Get(1).(*models.Proposal), args.Error(2)
}

func (m *mockProjectRepo) UpdateStatusGuarded(ctx context.Context, id uuid.UUID, from, to string) (*models.Project, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *mockProjectRepo) GetSelectedFreelancer(ctx context.Context, projectID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *mockProjectRepo) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Project, error) {
	args := m.Called(ctx, clientID, limit, offset)
	return args.Get(0).([]models.Project), args.Error(1)
}

type mockProposalRepo struct {
	mock.Mock
}

func (m *mockProposalRepo) Create(ctx context.Context, p *models.Proposal) error {
	args := m.Called(ctx, p)
	if args.Error(0) == nil {
		p.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockProposalRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Proposal), args.Error(1)
}

func (m *mockProposalRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Proposal, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]models.Proposal), args.Error(1)
}

func (m *mockProposalRepo) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Proposal, error) {
	args := m.Called(ctx, freelancerID, limit, offset)
	return args.Get(0).([]models.Proposal), args.Error(1)
}

func (m *mockProposalRepo) Withdraw(ctx context.Context, id, freelancerID uuid.UUID) (*models.Proposal, error) {
	args := m.Called(ctx, id, freelancerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Proposal), args.Error(1)
}

func newProjectService(projects *mockProjectRepo, proposals *mockProposalRepo) *ProjectService {
	return NewProjectService(projects, proposals, nil, 5)
}

func TestProjectService_CreateProject_Success(t *testing.T) {
	projects := new(mockProjectRepo)
	proposals := new(mockProposalRepo)
	svc := newProjectService(projects, proposals)
	ctx := context.Background()
	client := Actor{ID: uuid.New(), Role: models.UserTypeClient}

	projects.On("Create", ctx, mock.AnythingOfType("*models.Project")).Return(nil)

	project, err := svc.CreateProject(ctx, client, CreateProjectInput{
		Title:       "Сайт-визитка",
		Description: "Нужен небольшой сайт на десять страниц",
	})
	assert.NoError(t, err)
	assert.Equal(t, models.ProjectStatusOpen, project.Status)
	assert.Equal(t, client.ID, project.ClientID)
	assert.NotEmpty(t, project.Code)
	projects.AssertExpectations(t)
}

func TestProjectService_CreateProject_FreelancerForbidden(t *testing.T) {
	svc := newProjectService(new(mockProjectRepo), new(mockProposalRepo))
	ctx := context.Background()
	freelancer := Actor{ID: uuid.New(), Role: models.UserTypeFreelancer}

	_, err := svc.CreateProject(ctx, freelancer, CreateProjectInput{
		Title:       "Сайт-визитка",
		Description: "Нужен небольшой сайт на десять страниц",
	})
	assert.True(t, apperror.IsForbidden(err))
}

func TestProjectService_CreateProject_BudgetValidation(t *testing.T) {
	svc := newProjectService(new(mockProjectRepo), new(mockProposalRepo))
	ctx := context.Background()
	client := Actor{ID: uuid.New(), Role: models.UserTypeClient}

	minBudget := 5000.0
	maxBudget := 1000.0
	_, err := svc.CreateProject(ctx, client, CreateProjectInput{
		Title:       "Сайт-визитка",
		Description: "Нужен небольшой сайт на десять страниц",
		BudgetMin:   &minBudget,
		BudgetMax:   &maxBudget,
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestProjectService_SubmitProposal_Success(t *testing.T) {
	projects := new(mockProjectRepo)
	proposals := new(mockProposalRepo)
	svc := newProjectService(projects, proposals)
	ctx := context.Background()

	clientID := uuid.New()
	projectID := uuid.New()
	freelancer := Actor{ID: uuid.New(), Role: models.UserTypeFreelancer}

	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID: projectID, ClientID: clientID, Status: models.ProjectStatusOpen, Title: "Сайт",
	}, nil)
	proposals.On("Create", ctx, mock.AnythingOfType("*models.Proposal")).Return(nil)

	proposal, err := svc.SubmitProposal(ctx, freelancer, projectID, SubmitProposalInput{
		Amount:       1000,
		DeliveryDays: 14,
		CoverLetter:  "Готов выполнить работу в срок",
	})
	assert.NoError(t, err)
	assert.Equal(t, models.ProposalStatusPending, proposal.Status)
	assert.Equal(t, freelancer.ID, proposal.FreelancerID)
	proposals.AssertExpectations(t)
}

func TestProjectService_SubmitProposal_OwnProject(t *testing.T) {
	projects := new(mockProjectRepo)
	svc := newProjectService(projects, new(mockProposalRepo))
	ctx := context.Background()

	projectID := uuid.New()
	owner := Actor{ID: uuid.New(), Role: models.UserTypeFreelancer}

	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID: projectID, ClientID: owner.ID, Status: models.ProjectStatusOpen,
	}, nil)

	_, err := svc.SubmitProposal(ctx, owner, projectID, SubmitProposalInput{
		Amount:       1000,
		DeliveryDays: 14,
		CoverLetter:  "Готов выполнить работу в срок",
	})
	assert.True(t, apperror.IsForbidden(err))
}

func TestProjectService_SubmitProposal_ProjectNotOpen(t *testing.T) {
	projects := new(mockProjectRepo)
	svc := newProjectService(projects, new(mockProposalRepo))
	ctx := context.Background()

	projectID := uuid.New()
	freelancer := Actor{ID: uuid.New(), Role: models.UserTypeFreelancer}

	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID: projectID, ClientID: uuid.New(), Status: models.ProjectStatusInProgress,
	}, nil)

	_, err := svc.SubmitProposal(ctx, freelancer, projectID, SubmitProposalInput{
		Amount:       1000,
		DeliveryDays: 14,
		CoverLetter:  "Готов выполнить работу в срок",
	})
	assert.True(t, apperror.IsInvalidState(err))
}

func TestProjectService_SubmitProposal_Duplicate(t *testing.T) {
	projects := new(mockProjectRepo)
	proposals := new(mockProposalRepo)
	svc := newProjectService(projects, proposals)
	ctx := context.Background()

	projectID := uuid.New()
	freelancer := Actor{ID: uuid.New(), Role: models.UserTypeFreelancer}

	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID: projectID, ClientID: uuid.New(), Status: models.ProjectStatusOpen,
	}, nil)
	proposals.On("Create", ctx, mock.AnythingOfType("*models.Proposal")).
		Return(repository.ErrDuplicateProposal)

	_, err := svc.SubmitProposal(ctx, freelancer, projectID, SubmitProposalInput{
		Amount:       1000,
		DeliveryDays: 14,
		CoverLetter:  "Готов выполнить работу в срок",
	})
	assert.True(t, apperror.IsConflict(err))
}

func TestProjectService_AcceptProposal_Success(t *testing.T) {
	projects := new(mockProjectRepo)
	proposals := new(mockProposalRepo)
	svc := newProjectService(projects, proposals)
	ctx := context.Background()

	client := Actor{ID: uuid.New(), Role: models.UserTypeClient}
	projectID := uuid.New()
	proposalID := uuid.New()
	freelancerID := uuid.New()

	proposals.On("GetByID", ctx, proposalID).Return(&models.Proposal{
		ID: proposalID, ProjectID: projectID, FreelancerID: freelancerID,
		Status: models.ProposalStatusPending, Amount: 1000,
	}, nil)
	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID: projectID, ClientID: client.ID, Status: models.ProjectStatusOpen,
	}, nil)
	projects.On("AcceptProposal", ctx, projectID, proposalID).Return(
		&models.Project{ID: projectID, ClientID: client.ID, Status: models.ProjectStatusInProgress, SelectedProposalID: &proposalID},
		&models.Proposal{ID: proposalID, ProjectID: projectID, FreelancerID: freelancerID, Status: models.ProposalStatusAccepted, Amount: 1000},
		nil,
	)

	project, proposal, err := svc.AcceptProposal(ctx, client, proposalID)
	assert.NoError(t, err)
	assert.Equal(t, models.ProjectStatusInProgress, project.Status)
	assert.Equal(t, models.ProposalStatusAccepted, proposal.Status)
	assert.Equal(t, &proposalID, project.SelectedProposalID)
	projects.AssertExpectations(t)
}

func TestProjectService_AcceptProposal_NotOwner(t *testing.T) {
	projects := new(mockProjectRepo)
	proposals := new(mockProposalRepo)
	svc := newProjectService(projects, proposals)
	ctx := context.Background()

	stranger := Actor{ID: uuid.New(), Role: models.UserTypeClient}
	projectID := uuid.New()
	proposalID := uuid.New()

	proposals.On("GetByID", ctx, proposalID).Return(&models.Proposal{
		ID: proposalID, ProjectID: projectID, Status: models.ProposalStatusPending,
	}, nil)
	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID: projectID, ClientID: uuid.New(), Status: models.ProjectStatusOpen,
	}, nil)

	_, _, err := svc.AcceptProposal(ctx, stranger, proposalID)
	assert.True(t, apperror.IsForbidden(err))
}

func TestProjectService_AcceptProposal_ConcurrentLoser(t *testing.T) {
	projects := new(mockProjectRepo)
	proposals := new(mockProposalRepo)
	svc := newProjectService(projects, proposals)
	ctx := context.Background()

	client := Actor{ID: uuid.New(), Role: models.UserTypeClient}
	projectID := uuid.New()
	proposalID := uuid.New()

	proposals.On("GetByID", ctx, proposalID).Return(&models.Proposal{
		ID: proposalID, ProjectID: projectID, Status: models.ProposalStatusPending,
	}, nil)
	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID: projectID, ClientID: client.ID, Status: models.ProjectStatusOpen,
	}, nil)
	// Охраняемый UPDATE не нашёл open-проект: конкурентное принятие выиграл другой вызов.
	projects.On("AcceptProposal", ctx, projectID, proposalID).Return(nil, nil, repository.ErrProjectNotOpen)

	_, _, err := svc.AcceptProposal(ctx, client, proposalID)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestProjectService_AcceptProposal_AlreadyProcessed(t *testing.T) {
	projects := new(mockProjectRepo)
	proposals := new(mockProposalRepo)
	svc := newProjectService(projects, proposals)
	ctx := context.Background()

	client := Actor{ID: uuid.New(), Role: models.UserTypeClient}
	projectID := uuid.New()
	proposalID := uuid.New()

	proposals.On("GetByID", ctx, proposalID).Return(&models.Proposal{
		ID: proposalID, ProjectID: projectID, Status: models.ProposalStatusRejected,
	}, nil)
	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID: projectID, ClientID: client.ID, Status: models.ProjectStatusInProgress,
	}, nil)
	projects.On("AcceptProposal", ctx, projectID, proposalID).Return(nil, nil, repository.ErrProposalNotPending)

	_, _, err := svc.AcceptProposal(ctx, client, proposalID)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestProjectService_WithdrawProposal_OwnerOnly(t *testing.T) {
	projects := new(mockProjectRepo)
	proposals := new(mockProposalRepo)
	svc := newProjectService(projects, proposals)
	ctx := context.Background()

	proposalID := uuid.New()
	stranger := Actor{ID: uuid.New(), Role: models.UserTypeFreelancer}

	proposals.On("GetByID", ctx, proposalID).Return(&models.Proposal{
		ID: proposalID, FreelancerID: uuid.New(), Status: models.ProposalStatusPending,
	}, nil)

	_, err := svc.WithdrawProposal(ctx, stranger, proposalID)
	assert.True(t, apperror.IsForbidden(err))
}

func TestProjectService_WithdrawProposal_NotPending(t *testing.T) {
	projects := new(mockProjectRepo)
	proposals := new(mockProposalRepo)
	svc := newProjectService(projects, proposals)
	ctx := context.Background()

	proposalID := uuid.New()
	owner := Actor{ID: uuid.New(), Role: models.UserTypeFreelancer}

	proposals.On("GetByID", ctx, proposalID).Return(&models.Proposal{
		ID: proposalID, FreelancerID: owner.ID, Status: models.ProposalStatusAccepted,
	}, nil)
	proposals.On("Withdraw", ctx, proposalID, owner.ID).Return(nil, repository.ErrProposalNotWithdrawable)

	_, err := svc.WithdrawProposal(ctx, owner, proposalID)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestProjectService_GetProject_FiltersForeignProposals(t *testing.T) {
	projects := new(mockProjectRepo)
	svc := newProjectService(projects, new(mockProposalRepo))
	ctx := context.Background()

	projectID := uuid.New()
	freelancer := Actor{ID: uuid.New(), Role: models.UserTypeFreelancer}

	projects.On("GetWithProposals", ctx, projectID).Return(&models.Project{
		ID: projectID, ClientID: uuid.New(), Status: models.ProjectStatusOpen,
		Proposals: []models.Proposal{
			{ID: uuid.New(), FreelancerID: freelancer.ID},
			{ID: uuid.New(), FreelancerID: uuid.New()},
			{ID: uuid.New(), FreelancerID: uuid.New()},
		},
	}, nil)

	project, err := svc.GetProject(ctx, freelancer, projectID)
	assert.NoError(t, err)
	assert.Len(t, project.Proposals, 1)
	assert.Equal(t, freelancer.ID, project.Proposals[0].FreelancerID)
}

func TestProjectService_CompleteProject_WrongStatus(t *testing.T) {
	projects := new(mockProjectRepo)
	svc := newProjectService(projects, new(mockProposalRepo))
	ctx := context.Background()

	client := Actor{ID: uuid.New(), Role: models.UserTypeClient}
	projectID := uuid.New()

	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID: projectID, ClientID: client.ID, Status: models.ProjectStatusOpen,
	}, nil)
	projects.On("UpdateStatusGuarded", ctx, projectID, models.ProjectStatusInProgress, models.ProjectStatusCompleted).
		Return(nil, repository.ErrStatusConflict)

	_, err := svc.CompleteProject(ctx, client, projectID)
	assert.True(t, apperror.IsInvalidState(err))
}
