package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/event"
	"github.com/ignatzorin/freelance-escrow/internal/gateway"
	"github.com/ignatzorin/freelance-escrow/internal/logger"
	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
)

// TransactionRepository описывает взаимодействие сервиса с хранилищем транзакций.
type TransactionRepository interface {
	Create(ctx context.Context, t *models.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	GetByGatewayID(ctx context.Context, gatewayID string) (*models.Transaction, error)
	SetGatewayRef(ctx context.Context, id uuid.UUID, gatewayID string) error
	Confirm(ctx context.Context, id uuid.UUID, gatewayID string, cashbackRate float64) (*models.Transaction, float64, error)
	Fail(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error)
}

// PaymentService проводит оплату вех через платёжный шлюз. Создание intent
// намеренно вынесено за пределы транзакции базы: если callback не придёт,
// транзакция остаётся pending и не трогает балансы.
type PaymentService struct {
	transactions TransactionRepository
	milestones   MilestoneRepository
	projects     ProjectRepository
	profiles     ProfileRepository
	gateway      gateway.PaymentGateway
	dispatcher   *Dispatcher
	codeAttempts int
	cashbackRate float64
}

// NewPaymentService создаёт платёжный сервис.
func NewPaymentService(transactions TransactionRepository, milestones MilestoneRepository, projects ProjectRepository, profiles ProfileRepository, gw gateway.PaymentGateway, dispatcher *Dispatcher, codeAttempts int, cashbackRate float64) *PaymentService {
	return &PaymentService{
		transactions: transactions,
		milestones:   milestones,
		projects:     projects,
		profiles:     profiles,
		gateway:      gw,
		dispatcher:   dispatcher,
		codeAttempts: codeAttempts,
		cashbackRate: cashbackRate,
	}
}

// PaymentIntent — результат инициации оплаты: транзакция и адрес оплаты.
type PaymentIntent struct {
	Transaction *models.Transaction `json:"transaction"`
	PaymentURL  string              `json:"payment_url"`
}

// InitiatePayment создаёт транзакцию оплаты выполненной вехи и возвращает
// redirect URL шлюза. Доступно владельцу проекта; у проекта в споре оплата
// заблокирована. Веха будет помечена оплаченной только после подтверждения.
func (s *PaymentService) InitiatePayment(ctx context.Context, actor Actor, milestoneID uuid.UUID) (*PaymentIntent, error) {
	milestone, err := s.milestones.GetByID(ctx, milestoneID)
	if err != nil {
		if errors.Is(err, repository.ErrMilestoneNotFound) {
			return nil, apperror.ErrMilestoneNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить веху")
	}

	project, err := s.projects.GetByID(ctx, milestone.ProjectID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, apperror.ErrProjectNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить проект")
	}

	if project.ClientID != actor.ID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "оплачивать вехи может только владелец проекта")
	}
	if project.Status == models.ProjectStatusDisputed {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "проект в споре, оплата заблокирована")
	}
	if milestone.Status != models.MilestoneStatusCompleted {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "оплачиваются только выполненные вехи")
	}

	freelancerID, err := s.projects.GetSelectedFreelancer(ctx, project.ID)
	if err != nil {
		if errors.Is(err, repository.ErrProposalNotFound) {
			return nil, apperror.New(apperror.ErrCodeInvalidState, "у проекта нет выбранного исполнителя")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось определить исполнителя проекта")
	}

	// Повторная попытка оплаты создаёт новую транзакцию, прежние pending
	// строки не переиспользуются.
	transaction := &models.Transaction{
		ProjectID:   project.ID,
		MilestoneID: &milestone.ID,
		PayerID:     actor.ID,
		PayeeID:     freelancerID,
		Amount:      milestone.Amount,
		Type:        models.TransactionTypeRelease,
		Status:      models.TransactionStatusPending,
	}
	err = withUniqueCode(s.codeAttempts, func(code string) error {
		transaction.Code = code
		return s.transactions.Create(ctx, transaction)
	})
	if err != nil {
		return nil, err
	}

	payer, err := s.profiles.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить профиль плательщика")
	}

	intent, err := s.gateway.CreateIntent(ctx, gateway.IntentParams{
		Title:       milestone.Title,
		Description: fmt.Sprintf("Оплата вехи проекта «%s»", project.Title),
		Amount:      milestone.Amount,
		PayerEmail:  payer.Email,
		Reference:   transaction.ID.String(),
	})
	if err != nil {
		// Транзакцию гасим сразу, чтобы не копить вечные pending.
		if _, ferr := s.transactions.Fail(ctx, transaction.ID); ferr != nil {
			logger.WithComponent("payment").WithError(ferr).Warn("failed to void transaction after gateway error")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "платёжный шлюз недоступен")
	}

	if err := s.transactions.SetGatewayRef(ctx, transaction.ID, intent.ID); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить ссылку шлюза")
	}
	transaction.GatewayPaymentID = &intent.ID

	s.dispatcher.Dispatch(ctx, []event.Event{{
		Type:    event.TypePaymentInitiated,
		ActorID: &actor.ID,
		Audit: event.AuditRecord{
			Action:     "payment_initiated",
			EntityType: "transaction",
			EntityID:   transaction.ID,
			EntityCode: transaction.Code,
		},
		Payload: event.Payload{
			ProjectID:     event.ID(project.ID),
			MilestoneID:   event.ID(milestone.ID),
			TransactionID: event.ID(transaction.ID),
			Amount:        event.Amount(transaction.Amount),
		},
	}})

	return &PaymentIntent{Transaction: transaction, PaymentURL: intent.RedirectURL}, nil
}

// ConfirmPayment завершает платёж по внешней ссылке шлюза. Операция
// идемпотентна: повторная доставка callback по завершённой транзакции ничего
// не меняет и не считается ошибкой.
func (s *PaymentService) ConfirmPayment(ctx context.Context, reference, gatewayPaymentID string) (*models.Transaction, error) {
	id, err := s.resolveReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	transaction, cashback, err := s.transactions.Confirm(ctx, id, gatewayPaymentID, s.cashbackRate)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTransactionCompleted):
			// Повтор webhook: возвращаем уже завершённую транзакцию.
			return s.transactions.GetByID(ctx, id)
		case errors.Is(err, repository.ErrTransactionNotFound):
			return nil, apperror.ErrTransactionNotFound
		case errors.Is(err, repository.ErrTransactionNotPending):
			return nil, apperror.New(apperror.ErrCodeInvalidState, "транзакция не ожидает подтверждения")
		default:
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось подтвердить платёж")
		}
	}

	events := []event.Event{{
		Type:       event.TypePaymentConfirmed,
		Recipients: []uuid.UUID{transaction.PayeeID, transaction.PayerID},
		Title:      "Платёж завершён",
		Message:    fmt.Sprintf("Оплата на сумму %.2f успешно проведена", transaction.Amount),
		Link:       fmt.Sprintf("/projects/%s", transaction.ProjectID),
		Audit: event.AuditRecord{
			Action:     "payment_confirmed",
			EntityType: "transaction",
			EntityID:   transaction.ID,
			EntityCode: transaction.Code,
		},
		Payload: event.Payload{
			ProjectID:     event.ID(transaction.ProjectID),
			MilestoneID:   transaction.MilestoneID,
			TransactionID: event.ID(transaction.ID),
			Amount:        event.Amount(transaction.Amount),
		},
	}}
	if cashback > 0 {
		events = append(events, event.Event{
			Type:       event.TypeCashbackAccrued,
			Recipients: []uuid.UUID{transaction.PayerID},
			Title:      "Начислен кешбэк",
			Message:    fmt.Sprintf("Вам начислен кешбэк %.2f за оплату", cashback),
			Audit: event.AuditRecord{
				Action:     "cashback_accrued",
				EntityType: "transaction",
				EntityID:   transaction.ID,
				EntityCode: transaction.Code,
			},
			Payload: event.Payload{
				TransactionID: event.ID(transaction.ID),
				Amount:        event.Amount(cashback),
			},
		})
	}
	s.dispatcher.Dispatch(ctx, events)

	return transaction, nil
}

// FailPayment помечает транзакцию неуспешной по сигналу шлюза.
func (s *PaymentService) FailPayment(ctx context.Context, reference string) (*models.Transaction, error) {
	id, err := s.resolveReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	transaction, err := s.transactions.Fail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotPending) {
			return nil, apperror.New(apperror.ErrCodeInvalidState, "транзакция не ожидает обработки")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось отклонить платёж")
	}

	s.dispatcher.Dispatch(ctx, []event.Event{{
		Type:       event.TypePaymentFailed,
		Recipients: []uuid.UUID{transaction.PayerID},
		Title:      "Платёж не прошёл",
		Message:    fmt.Sprintf("Оплата на сумму %.2f отклонена шлюзом", transaction.Amount),
		Link:       fmt.Sprintf("/projects/%s", transaction.ProjectID),
		Audit: event.AuditRecord{
			Action:     "payment_failed",
			EntityType: "transaction",
			EntityID:   transaction.ID,
			EntityCode: transaction.Code,
		},
		Payload: event.Payload{
			TransactionID: event.ID(transaction.ID),
			Amount:        event.Amount(transaction.Amount),
		},
	}})

	return transaction, nil
}

// HandleGatewayCallback обрабатывает webhook шлюза.
func (s *PaymentService) HandleGatewayCallback(ctx context.Context, cb gateway.Callback) (*models.Transaction, error) {
	switch cb.Status {
	case gateway.CallbackStatusApproved:
		return s.ConfirmPayment(ctx, cb.Reference, cb.PaymentID)
	case gateway.CallbackStatusRejected, gateway.CallbackStatusCancelled:
		return s.FailPayment(ctx, cb.Reference)
	default:
		return nil, apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("неизвестный статус платежа %q", cb.Status))
	}
}

// ListTransactions возвращает историю транзакций пользователя.
func (s *PaymentService) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.transactions.ListByUser(ctx, userID, limit, offset)
}

// resolveReference находит транзакцию по ссылке шлюза: сначала как внутренний
// идентификатор, затем как внешний идентификатор платежа.
func (s *PaymentService) resolveReference(ctx context.Context, reference string) (uuid.UUID, error) {
	if id, err := uuid.Parse(reference); err == nil {
		return id, nil
	}

	transaction, err := s.transactions.GetByGatewayID(ctx, reference)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return uuid.Nil, apperror.ErrTransactionNotFound
		}
		return uuid.Nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось найти транзакцию")
	}
	return transaction.ID, nil
}
