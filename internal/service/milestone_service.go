package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/event"
	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
	"github.com/ignatzorin/freelance-escrow/internal/validation"
)

// MilestoneRepository описывает взаимодействие сервисов с хранилищем вех.
type MilestoneRepository interface {
	Create(ctx context.Context, m *models.Milestone) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Milestone, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Milestone, error)
	SumAmounts(ctx context.Context, projectID uuid.UUID) (float64, error)
	Start(ctx context.Context, id uuid.UUID) (*models.Milestone, error)
	Complete(ctx context.Context, id uuid.UUID) (*models.Milestone, error)
}

// CreateMilestoneInput — данные для создания вехи.
type CreateMilestoneInput struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Amount      float64    `json:"amount"`
	OrderIndex  int        `json:"order_index"`
	DueDate     *time.Time `json:"due_date"`
}

// MilestoneService реализует машину состояний вех.
type MilestoneService struct {
	milestones    MilestoneRepository
	projects      ProjectRepository
	proposals     ProposalRepository
	dispatcher    *Dispatcher
	codeAttempts  int
	enforceBudget bool
}

// NewMilestoneService создаёт сервис вех.
func NewMilestoneService(milestones MilestoneRepository, projects ProjectRepository, proposals ProposalRepository, dispatcher *Dispatcher, codeAttempts int, enforceBudget bool) *MilestoneService {
	return &MilestoneService{
		milestones:    milestones,
		projects:      projects,
		proposals:     proposals,
		dispatcher:    dispatcher,
		codeAttempts:  codeAttempts,
		enforceBudget: enforceBudget,
	}
}

// CreateMilestone добавляет веху в активный проект. Доступно владельцу.
func (s *MilestoneService) CreateMilestone(ctx context.Context, actor Actor, projectID uuid.UUID, in CreateMilestoneInput) (*models.Milestone, error) {
	project, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.ClientID != actor.ID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "добавлять вехи может только владелец проекта")
	}
	if project.Status != models.ProjectStatusInProgress {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "вехи добавляются только в активный проект")
	}

	if err := validation.ValidateLength("название вехи", in.Title, validation.MinMilestoneTitleLength, validation.MaxMilestoneTitleLength); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateAmount("сумма вехи", in.Amount); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if in.OrderIndex < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "порядковый номер вехи не может быть отрицательным")
	}

	if s.enforceBudget {
		if err := s.checkBudget(ctx, project, in.Amount); err != nil {
			return nil, err
		}
	}

	milestone := &models.Milestone{
		ProjectID:   projectID,
		Title:       in.Title,
		Description: in.Description,
		Amount:      in.Amount,
		OrderIndex:  in.OrderIndex,
		Status:      models.MilestoneStatusPending,
		DueDate:     in.DueDate,
	}

	err = withUniqueCode(s.codeAttempts, func(code string) error {
		milestone.Code = code
		return s.milestones.Create(ctx, milestone)
	})
	if err != nil {
		if errors.Is(err, repository.ErrOrderIndexTaken) {
			return nil, apperror.New(apperror.ErrCodeConflict, "порядковый номер вехи уже занят")
		}
		return nil, err
	}

	ev := event.Event{
		Type:    event.TypeMilestoneCreated,
		ActorID: &actor.ID,
		Title:   "Новая веха",
		Message: fmt.Sprintf("В проекте «%s» создана веха «%s» на сумму %.2f", project.Title, in.Title, in.Amount),
		Link:    fmt.Sprintf("/projects/%s", project.ID),
		Audit: event.AuditRecord{
			Action:     "milestone_created",
			EntityType: "milestone",
			EntityID:   milestone.ID,
			EntityCode: milestone.Code,
		},
		Payload: event.Payload{
			ProjectID:   event.ID(projectID),
			MilestoneID: event.ID(milestone.ID),
			Amount:      event.Amount(in.Amount),
		},
	}
	if freelancerID, ferr := s.projects.GetSelectedFreelancer(ctx, projectID); ferr == nil {
		ev.Recipients = []uuid.UUID{freelancerID}
	}
	s.dispatcher.Dispatch(ctx, []event.Event{ev})

	return milestone, nil
}

// checkBudget отклоняет веху, если сумма вех превысит сумму принятого отклика.
func (s *MilestoneService) checkBudget(ctx context.Context, project *models.Project, amount float64) error {
	if project.SelectedProposalID == nil {
		return nil
	}

	proposal, err := s.proposals.GetByID(ctx, *project.SelectedProposalID)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить принятый отклик")
	}

	sum, err := s.milestones.SumAmounts(ctx, project.ID)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось посчитать сумму вех")
	}

	if sum+amount > proposal.Amount {
		return apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("сумма вех %.2f превышает сумму принятого отклика %.2f", sum+amount, proposal.Amount))
	}
	return nil
}

// ListMilestones возвращает вехи проекта в порядке order_index.
func (s *MilestoneService) ListMilestones(ctx context.Context, projectID uuid.UUID) ([]models.Milestone, error) {
	if _, err := s.getProject(ctx, projectID); err != nil {
		return nil, err
	}
	milestones, err := s.milestones.ListByProject(ctx, projectID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить вехи")
	}
	return milestones, nil
}

// StartMilestone переводит веху pending -> in_progress. Доступно выбранному
// фрилансеру проекта.
func (s *MilestoneService) StartMilestone(ctx context.Context, actor Actor, milestoneID uuid.UUID) (*models.Milestone, error) {
	milestone, project, err := s.getMilestoneWithProject(ctx, milestoneID)
	if err != nil {
		return nil, err
	}
	if err := s.requireSelectedFreelancer(ctx, project.ID, actor); err != nil {
		return nil, err
	}

	milestone, err = s.milestones.Start(ctx, milestone.ID)
	if err != nil {
		if errors.Is(err, repository.ErrMilestoneWrongStatus) {
			return nil, apperror.New(apperror.ErrCodeInvalidState, "начать можно только ожидающую веху")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось начать веху")
	}

	s.dispatcher.Dispatch(ctx, []event.Event{{
		Type:       event.TypeMilestoneStarted,
		ActorID:    &actor.ID,
		Recipients: []uuid.UUID{project.ClientID},
		Title:      "Работа над вехой начата",
		Message:    fmt.Sprintf("Фрилансер приступил к вехе «%s»", milestone.Title),
		Link:       fmt.Sprintf("/projects/%s", project.ID),
		Audit: event.AuditRecord{
			Action:     "milestone_started",
			EntityType: "milestone",
			EntityID:   milestone.ID,
			EntityCode: milestone.Code,
		},
		Payload: event.Payload{
			ProjectID:   event.ID(project.ID),
			MilestoneID: event.ID(milestone.ID),
		},
	}})

	return milestone, nil
}

// CompleteMilestone отмечает веху выполненной. Доступно выбранному
// фрилансеру; у проекта в споре переход запрещён.
func (s *MilestoneService) CompleteMilestone(ctx context.Context, actor Actor, milestoneID uuid.UUID) (*models.Milestone, error) {
	milestone, project, err := s.getMilestoneWithProject(ctx, milestoneID)
	if err != nil {
		return nil, err
	}
	if err := s.requireSelectedFreelancer(ctx, project.ID, actor); err != nil {
		return nil, err
	}
	if project.Status == models.ProjectStatusDisputed {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "проект в споре, завершение вех заблокировано")
	}

	milestone, err = s.milestones.Complete(ctx, milestone.ID)
	if err != nil {
		if errors.Is(err, repository.ErrMilestoneWrongStatus) {
			return nil, apperror.New(apperror.ErrCodeInvalidState, "веха уже завершена или оплачена")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось завершить веху")
	}

	s.dispatcher.Dispatch(ctx, []event.Event{{
		Type:       event.TypeMilestoneCompleted,
		ActorID:    &actor.ID,
		Recipients: []uuid.UUID{project.ClientID},
		Title:      "Веха выполнена",
		Message:    fmt.Sprintf("Веха «%s» отмечена выполненной, можно переходить к оплате", milestone.Title),
		Link:       fmt.Sprintf("/projects/%s", project.ID),
		Audit: event.AuditRecord{
			Action:     "milestone_completed",
			EntityType: "milestone",
			EntityID:   milestone.ID,
			EntityCode: milestone.Code,
		},
		Payload: event.Payload{
			ProjectID:   event.ID(project.ID),
			MilestoneID: event.ID(milestone.ID),
			Amount:      event.Amount(milestone.Amount),
		},
	}})

	return milestone, nil
}

func (s *MilestoneService) getProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, apperror.ErrProjectNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить проект")
	}
	return project, nil
}

func (s *MilestoneService) getMilestoneWithProject(ctx context.Context, milestoneID uuid.UUID) (*models.Milestone, *models.Project, error) {
	milestone, err := s.milestones.GetByID(ctx, milestoneID)
	if err != nil {
		if errors.Is(err, repository.ErrMilestoneNotFound) {
			return nil, nil, apperror.ErrMilestoneNotFound
		}
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить веху")
	}

	project, err := s.getProject(ctx, milestone.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return milestone, project, nil
}

func (s *MilestoneService) requireSelectedFreelancer(ctx context.Context, projectID uuid.UUID, actor Actor) error {
	freelancerID, err := s.projects.GetSelectedFreelancer(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrProposalNotFound) {
			return apperror.New(apperror.ErrCodeInvalidState, "у проекта нет выбранного исполнителя")
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось определить исполнителя проекта")
	}
	if freelancerID != actor.ID {
		return apperror.New(apperror.ErrCodeForbidden, "операция доступна только исполнителю проекта")
	}
	return nil
}
