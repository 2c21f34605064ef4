package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/event"
	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
	"github.com/ignatzorin/freelance-escrow/internal/validation"
)

// DisputeRepository описывает взаимодействие сервиса с хранилищем споров.
type DisputeRepository interface {
	Create(ctx context.Context, d *models.Dispute) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	StartReview(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	Finish(ctx context.Context, id, resolvedBy uuid.UUID, resolution, finalStatus string) (*models.Dispute, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Dispute, error)
	ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error)
}

// CreateDisputeInput — данные открываемого спора.
type CreateDisputeInput struct {
	Reason      string     `json:"reason"`
	Description string     `json:"description"`
	MilestoneID *uuid.UUID `json:"milestone_id"`
}

// DisputeService реализует рабочий процесс споров. Спор замораживает проект:
// пока он не завершён, вехи не закрываются и не оплачиваются.
type DisputeService struct {
	disputes     DisputeRepository
	projects     ProjectRepository
	dispatcher   *Dispatcher
	codeAttempts int
}

// NewDisputeService создаёт сервис споров.
func NewDisputeService(disputes DisputeRepository, projects ProjectRepository, dispatcher *Dispatcher, codeAttempts int) *DisputeService {
	return &DisputeService{
		disputes:     disputes,
		projects:     projects,
		dispatcher:   dispatcher,
		codeAttempts: codeAttempts,
	}
}

// CreateDispute открывает спор по проекту. Доступно клиенту и выбранному
// фрилансеру; по проекту может быть не более одного активного спора.
func (s *DisputeService) CreateDispute(ctx context.Context, actor Actor, projectID uuid.UUID, in CreateDisputeInput) (*models.Dispute, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, apperror.ErrProjectNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить проект")
	}

	counterpart, err := s.counterpart(ctx, project, actor.ID)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateLength("причина спора", in.Reason, validation.MinDisputeReasonLength, validation.MaxDisputeReasonLength); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("описание спора", in.Description, 0, validation.MaxDisputeDescriptionLength); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	dispute := &models.Dispute{
		ProjectID:   projectID,
		MilestoneID: in.MilestoneID,
		RaisedBy:    actor.ID,
		Reason:      in.Reason,
		Description: in.Description,
		Status:      models.DisputeStatusOpen,
	}

	err = withUniqueCode(s.codeAttempts, func(code string) error {
		dispute.Code = code
		return s.disputes.Create(ctx, dispute)
	})
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotDisputable) {
			return nil, apperror.New(apperror.ErrCodeConflict, "по проекту уже открыт спор либо он завершён")
		}
		return nil, err
	}

	ev := event.Event{
		Type:    event.TypeDisputeOpened,
		ActorID: &actor.ID,
		Title:   "Открыт спор",
		Message: fmt.Sprintf("По проекту «%s» открыт спор: %s", project.Title, in.Reason),
		Link:    fmt.Sprintf("/projects/%s", project.ID),
		Audit: event.AuditRecord{
			Action:     "dispute_opened",
			EntityType: "dispute",
			EntityID:   dispute.ID,
			EntityCode: dispute.Code,
		},
		Payload: event.Payload{
			ProjectID: event.ID(projectID),
			DisputeID: event.ID(dispute.ID),
		},
	}
	if counterpart != uuid.Nil {
		ev.Recipients = []uuid.UUID{counterpart}
	}
	s.dispatcher.Dispatch(ctx, []event.Event{ev})

	return dispute, nil
}

// GetDispute возвращает спор. Доступно участникам проекта и администратору.
func (s *DisputeService) GetDispute(ctx context.Context, actor Actor, disputeID uuid.UUID) (*models.Dispute, error) {
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		if errors.Is(err, repository.ErrDisputeNotFound) {
			return nil, apperror.ErrDisputeNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить спор")
	}

	if actor.IsAdmin() {
		return dispute, nil
	}

	project, err := s.projects.GetByID(ctx, dispute.ProjectID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить проект")
	}
	if _, err := s.counterpart(ctx, project, actor.ID); err != nil {
		return nil, err
	}

	return dispute, nil
}

// StartReview берёт спор в работу: open -> under_review. Только администратор.
func (s *DisputeService) StartReview(ctx context.Context, actor Actor, disputeID uuid.UUID) (*models.Dispute, error) {
	if !actor.IsAdmin() {
		return nil, apperror.New(apperror.ErrCodeForbidden, "рассматривать споры может только администратор")
	}

	dispute, err := s.disputes.StartReview(ctx, disputeID)
	if err != nil {
		if errors.Is(err, repository.ErrDisputeFinished) {
			return nil, apperror.New(apperror.ErrCodeInvalidState, "спор не в статусе open")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось взять спор в работу")
	}

	s.dispatcher.Dispatch(ctx, []event.Event{{
		Type:       event.TypeDisputeUnderReview,
		ActorID:    &actor.ID,
		Recipients: []uuid.UUID{dispute.RaisedBy},
		Title:      "Спор в работе",
		Message:    "Администратор начал рассмотрение вашего спора",
		Audit: event.AuditRecord{
			Action:     "dispute_review_started",
			EntityType: "dispute",
			EntityID:   dispute.ID,
			EntityCode: dispute.Code,
		},
		Payload: event.Payload{DisputeID: event.ID(dispute.ID)},
	}})

	return dispute, nil
}

// ResolveDispute решает спор с вердиктом администратора. Проект при этом
// возвращается в in_progress.
func (s *DisputeService) ResolveDispute(ctx context.Context, actor Actor, disputeID uuid.UUID, resolution string) (*models.Dispute, error) {
	return s.finishDispute(ctx, actor, disputeID, resolution, models.DisputeStatusResolved, event.TypeDisputeResolved, "Спор решён")
}

// CloseDispute закрывает спор без вердикта по существу.
func (s *DisputeService) CloseDispute(ctx context.Context, actor Actor, disputeID uuid.UUID, resolution string) (*models.Dispute, error) {
	return s.finishDispute(ctx, actor, disputeID, resolution, models.DisputeStatusClosed, event.TypeDisputeClosed, "Спор закрыт")
}

func (s *DisputeService) finishDispute(ctx context.Context, actor Actor, disputeID uuid.UUID, resolution, finalStatus string, evType event.Type, title string) (*models.Dispute, error) {
	if !actor.IsAdmin() {
		return nil, apperror.New(apperror.ErrCodeForbidden, "завершать споры может только администратор")
	}
	if err := validation.ValidateLength("решение", resolution, validation.MinDisputeReasonLength, validation.MaxDisputeDescriptionLength); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	dispute, err := s.disputes.Finish(ctx, disputeID, actor.ID, resolution, finalStatus)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDisputeNotFound):
			return nil, apperror.ErrDisputeNotFound
		case errors.Is(err, repository.ErrDisputeFinished):
			return nil, apperror.New(apperror.ErrCodeInvalidState, "спор уже завершён")
		default:
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось завершить спор")
		}
	}

	ev := event.Event{
		Type:    evType,
		ActorID: &actor.ID,
		Title:   title,
		Message: fmt.Sprintf("Решение по спору: %s", resolution),
		Link:    fmt.Sprintf("/projects/%s", dispute.ProjectID),
		Audit: event.AuditRecord{
			Action:     string(evType),
			EntityType: "dispute",
			EntityID:   dispute.ID,
			EntityCode: dispute.Code,
		},
		Payload: event.Payload{
			ProjectID: event.ID(dispute.ProjectID),
			DisputeID: event.ID(dispute.ID),
		},
	}

	// Уведомляем обе стороны проекта.
	recipients := []uuid.UUID{}
	if project, perr := s.projects.GetByID(ctx, dispute.ProjectID); perr == nil {
		recipients = append(recipients, project.ClientID)
		if freelancerID, ferr := s.projects.GetSelectedFreelancer(ctx, dispute.ProjectID); ferr == nil {
			recipients = append(recipients, freelancerID)
		}
	} else {
		recipients = append(recipients, dispute.RaisedBy)
	}
	ev.Recipients = recipients
	s.dispatcher.Dispatch(ctx, []event.Event{ev})

	return dispute, nil
}

// ListProjectDisputes возвращает споры проекта.
func (s *DisputeService) ListProjectDisputes(ctx context.Context, actor Actor, projectID uuid.UUID) ([]models.Dispute, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, apperror.ErrProjectNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить проект")
	}
	if !actor.IsAdmin() {
		if _, err := s.counterpart(ctx, project, actor.ID); err != nil {
			return nil, err
		}
	}
	return s.disputes.ListByProject(ctx, projectID)
}

// ListOpenDisputes возвращает очередь незавершённых споров. Только админ.
func (s *DisputeService) ListOpenDisputes(ctx context.Context, actor Actor, limit, offset int) ([]models.Dispute, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.disputes.ListOpen(ctx, limit, offset)
}

// counterpart проверяет, что userID участвует в проекте, и возвращает вторую
// сторону (uuid.Nil, если исполнитель ещё не выбран).
func (s *DisputeService) counterpart(ctx context.Context, project *models.Project, userID uuid.UUID) (uuid.UUID, error) {
	freelancerID, err := s.projects.GetSelectedFreelancer(ctx, project.ID)
	if err != nil && !errors.Is(err, repository.ErrProposalNotFound) {
		return uuid.Nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось определить исполнителя проекта")
	}

	switch userID {
	case project.ClientID:
		return freelancerID, nil
	case freelancerID:
		return project.ClientID, nil
	default:
		return uuid.Nil, apperror.New(apperror.ErrCodeForbidden, "вы не участник этого проекта")
	}
}
