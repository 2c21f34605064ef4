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

// ProjectRepository описывает взаимодействие сервисов с хранилищем проектов.
type ProjectRepository interface {
	Create(ctx context.Context, p *models.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	GetWithProposals(ctx context.Context, id uuid.UUID) (*models.Project, error)
	AcceptProposal(ctx context.Context, projectID, proposalID uuid.UUID) (*models.Project, *models.Proposal, error)
	UpdateStatusGuarded(ctx context.Context, id uuid.UUID, from, to string) (*models.Project, error)
	GetSelectedFreelancer(ctx context.Context, projectID uuid.UUID) (uuid.UUID, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Project, error)
}

// ProposalRepository описывает взаимодействие сервисов с хранилищем откликов.
type ProposalRepository interface {
	Create(ctx context.Context, p *models.Proposal) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Proposal, error)
	ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Proposal, error)
	Withdraw(ctx context.Context, id, freelancerID uuid.UUID) (*models.Proposal, error)
}

// CreateProjectInput — данные для создания проекта.
type CreateProjectInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	BudgetMin   *float64   `json:"budget_min"`
	BudgetMax   *float64   `json:"budget_max"`
	Deadline    *time.Time `json:"deadline"`
}

// SubmitProposalInput — данные отклика фрилансера.
type SubmitProposalInput struct {
	Amount       float64 `json:"amount"`
	DeliveryDays int     `json:"delivery_days"`
	CoverLetter  string  `json:"cover_letter"`
}

// ProjectService реализует машину состояний проектов и откликов.
type ProjectService struct {
	projects     ProjectRepository
	proposals    ProposalRepository
	dispatcher   *Dispatcher
	codeAttempts int
}

// NewProjectService создаёт сервис проектов.
func NewProjectService(projects ProjectRepository, proposals ProposalRepository, dispatcher *Dispatcher, codeAttempts int) *ProjectService {
	return &ProjectService{
		projects:     projects,
		proposals:    proposals,
		dispatcher:   dispatcher,
		codeAttempts: codeAttempts,
	}
}

// CreateProject создаёт новый открытый проект. Доступно только клиентам.
func (s *ProjectService) CreateProject(ctx context.Context, actor Actor, in CreateProjectInput) (*models.Project, error) {
	if !actor.IsClient() && !actor.IsAdmin() {
		return nil, apperror.New(apperror.ErrCodeForbidden, "создавать проекты могут только клиенты")
	}

	if err := validation.ValidateLength("название", in.Title, validation.MinProjectTitleLength, validation.MaxProjectTitleLength); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("описание", in.Description, validation.MinProjectDescriptionLength, validation.MaxProjectDescriptionLength); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateBudgetRange(in.BudgetMin, in.BudgetMax); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	project := &models.Project{
		ClientID:    actor.ID,
		Title:       in.Title,
		Description: in.Description,
		BudgetMin:   in.BudgetMin,
		BudgetMax:   in.BudgetMax,
		Deadline:    in.Deadline,
		Status:      models.ProjectStatusOpen,
	}

	err := withUniqueCode(s.codeAttempts, func(code string) error {
		project.Code = code
		return s.projects.Create(ctx, project)
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, []event.Event{{
		Type:    event.TypeProjectCreated,
		ActorID: &actor.ID,
		Audit: event.AuditRecord{
			Action:     "project_created",
			EntityType: "project",
			EntityID:   project.ID,
			EntityCode: project.Code,
		},
		Payload: event.Payload{ProjectID: event.ID(project.ID)},
	}})

	return project, nil
}

// GetProject возвращает проект с откликами. Клиент-владелец и администратор
// видят все отклики, фрилансер — только свой.
func (s *ProjectService) GetProject(ctx context.Context, actor Actor, projectID uuid.UUID) (*models.Project, error) {
	project, err := s.projects.GetWithProposals(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, apperror.ErrProjectNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить проект")
	}

	if project.ClientID != actor.ID && !actor.IsAdmin() {
		own := project.Proposals[:0]
		for _, p := range project.Proposals {
			if p.FreelancerID == actor.ID {
				own = append(own, p)
			}
		}
		project.Proposals = own
	}

	return project, nil
}

// ListProjects возвращает проекты клиента.
func (s *ProjectService) ListProjects(ctx context.Context, actor Actor, limit, offset int) ([]models.Project, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.projects.ListByClient(ctx, actor.ID, limit, offset)
}

// SubmitProposal создаёт отклик фрилансера на открытый проект.
func (s *ProjectService) SubmitProposal(ctx context.Context, actor Actor, projectID uuid.UUID, in SubmitProposalInput) (*models.Proposal, error) {
	if !actor.IsFreelancer() {
		return nil, apperror.New(apperror.ErrCodeForbidden, "откликаться на проекты могут только фрилансеры")
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, apperror.ErrProjectNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить проект")
	}

	if project.ClientID == actor.ID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "нельзя откликаться на собственный проект")
	}
	if project.Status != models.ProjectStatusOpen {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "проект не принимает отклики")
	}

	if err := validation.ValidateAmount("сумма отклика", in.Amount); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateDeliveryDays(in.DeliveryDays); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("сопроводительное письмо", in.CoverLetter, validation.MinCoverLetterLength, validation.MaxCoverLetterLength); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	proposal := &models.Proposal{
		ProjectID:    projectID,
		FreelancerID: actor.ID,
		Amount:       in.Amount,
		DeliveryDays: in.DeliveryDays,
		CoverLetter:  in.CoverLetter,
		Status:       models.ProposalStatusPending,
	}

	err = withUniqueCode(s.codeAttempts, func(code string) error {
		proposal.Code = code
		return s.proposals.Create(ctx, proposal)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateProposal) {
			return nil, apperror.New(apperror.ErrCodeConflict, "у вас уже есть активный отклик на этот проект")
		}
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, []event.Event{{
		Type:       event.TypeProposalSubmitted,
		ActorID:    &actor.ID,
		Recipients: []uuid.UUID{project.ClientID},
		Title:      "Новый отклик",
		Message:    fmt.Sprintf("На проект «%s» поступил отклик на сумму %.2f", project.Title, in.Amount),
		Link:       fmt.Sprintf("/projects/%s", project.ID),
		Audit: event.AuditRecord{
			Action:     "proposal_submitted",
			EntityType: "proposal",
			EntityID:   proposal.ID,
			EntityCode: proposal.Code,
		},
		Payload: event.Payload{
			ProjectID:  event.ID(projectID),
			ProposalID: event.ID(proposal.ID),
			Amount:     event.Amount(in.Amount),
		},
	}})

	return proposal, nil
}

// ListProposals возвращает отклики проекта с учётом прав доступа.
func (s *ProjectService) ListProposals(ctx context.Context, actor Actor, projectID uuid.UUID) ([]models.Proposal, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, apperror.ErrProjectNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить проект")
	}

	proposals, err := s.proposals.ListByProject(ctx, projectID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить отклики")
	}

	if project.ClientID == actor.ID || actor.IsAdmin() {
		return proposals, nil
	}

	own := proposals[:0]
	for _, p := range proposals {
		if p.FreelancerID == actor.ID {
			own = append(own, p)
		}
	}
	return own, nil
}

// AcceptProposal принимает отклик. Переход атомарный: из двух конкурентных
// принятий выигрывает ровно одно, второе получает INVALID_STATE.
func (s *ProjectService) AcceptProposal(ctx context.Context, actor Actor, proposalID uuid.UUID) (*models.Project, *models.Proposal, error) {
	proposal, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, repository.ErrProposalNotFound) {
			return nil, nil, apperror.ErrProposalNotFound
		}
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить отклик")
	}

	project, err := s.projects.GetByID(ctx, proposal.ProjectID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, nil, apperror.ErrProjectNotFound
		}
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить проект")
	}
	if project.ClientID != actor.ID {
		return nil, nil, apperror.New(apperror.ErrCodeForbidden, "принимать отклики может только владелец проекта")
	}

	project, proposal, err = s.projects.AcceptProposal(ctx, proposal.ProjectID, proposalID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProposalNotFound):
			return nil, nil, apperror.ErrProposalNotFound
		case errors.Is(err, repository.ErrProposalNotPending):
			return nil, nil, apperror.New(apperror.ErrCodeInvalidState, "отклик уже обработан")
		case errors.Is(err, repository.ErrProjectNotOpen):
			return nil, nil, apperror.New(apperror.ErrCodeInvalidState, "проект уже не открыт")
		default:
			return nil, nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось принять отклик")
		}
	}

	s.dispatcher.Dispatch(ctx, []event.Event{{
		Type:       event.TypeProposalAccepted,
		ActorID:    &actor.ID,
		Recipients: []uuid.UUID{proposal.FreelancerID},
		Title:      "Отклик принят",
		Message:    fmt.Sprintf("Ваш отклик на проект «%s» принят", project.Title),
		Link:       fmt.Sprintf("/projects/%s", project.ID),
		Audit: event.AuditRecord{
			Action:     "proposal_accepted",
			EntityType: "proposal",
			EntityID:   proposal.ID,
			EntityCode: proposal.Code,
		},
		Payload: event.Payload{
			ProjectID:  event.ID(project.ID),
			ProposalID: event.ID(proposal.ID),
			Amount:     event.Amount(proposal.Amount),
		},
	}})

	return project, proposal, nil
}

// WithdrawProposal отзывает ожидающий отклик. Доступно только автору.
func (s *ProjectService) WithdrawProposal(ctx context.Context, actor Actor, proposalID uuid.UUID) (*models.Proposal, error) {
	proposal, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, repository.ErrProposalNotFound) {
			return nil, apperror.ErrProposalNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить отклик")
	}
	if proposal.FreelancerID != actor.ID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "отзывать можно только собственные отклики")
	}

	proposal, err = s.proposals.Withdraw(ctx, proposalID, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrProposalNotWithdrawable) {
			return nil, apperror.New(apperror.ErrCodeInvalidState, "отозвать можно только ожидающий отклик")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось отозвать отклик")
	}

	s.dispatcher.Dispatch(ctx, []event.Event{{
		Type:    event.TypeProposalWithdrawn,
		ActorID: &actor.ID,
		Audit: event.AuditRecord{
			Action:     "proposal_withdrawn",
			EntityType: "proposal",
			EntityID:   proposal.ID,
			EntityCode: proposal.Code,
		},
		Payload: event.Payload{
			ProjectID:  event.ID(proposal.ProjectID),
			ProposalID: event.ID(proposal.ID),
		},
	}})

	return proposal, nil
}

// CompleteProject переводит проект in_progress -> completed.
func (s *ProjectService) CompleteProject(ctx context.Context, actor Actor, projectID uuid.UUID) (*models.Project, error) {
	return s.finishProject(ctx, actor, projectID,
		models.ProjectStatusInProgress, models.ProjectStatusCompleted,
		event.TypeProjectCompleted, "Проект завершён")
}

// CancelProject переводит открытый проект в cancelled.
func (s *ProjectService) CancelProject(ctx context.Context, actor Actor, projectID uuid.UUID) (*models.Project, error) {
	return s.finishProject(ctx, actor, projectID,
		models.ProjectStatusOpen, models.ProjectStatusCancelled,
		event.TypeProjectCancelled, "Проект отменён")
}

func (s *ProjectService) finishProject(ctx context.Context, actor Actor, projectID uuid.UUID, from, to string, evType event.Type, title string) (*models.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, apperror.ErrProjectNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить проект")
	}
	if project.ClientID != actor.ID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "управлять проектом может только его владелец")
	}

	project, err = s.projects.UpdateStatusGuarded(ctx, projectID, from, to)
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, apperror.New(apperror.ErrCodeInvalidState,
				fmt.Sprintf("переход возможен только из статуса %q", from))
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить статус проекта")
	}

	ev := event.Event{
		Type:    evType,
		ActorID: &actor.ID,
		Title:   title,
		Message: fmt.Sprintf("Проект «%s» переведён в статус %q", project.Title, to),
		Link:    fmt.Sprintf("/projects/%s", project.ID),
		Audit: event.AuditRecord{
			Action:     string(evType),
			EntityType: "project",
			EntityID:   project.ID,
			EntityCode: project.Code,
		},
		Payload: event.Payload{ProjectID: event.ID(project.ID)},
	}
	// У открытого проекта нет выбранного фрилансера, уведомлять некого.
	if freelancerID, ferr := s.projects.GetSelectedFreelancer(ctx, projectID); ferr == nil {
		ev.Recipients = []uuid.UUID{freelancerID}
	}
	s.dispatcher.Dispatch(ctx, []event.Event{ev})

	return project, nil
}
