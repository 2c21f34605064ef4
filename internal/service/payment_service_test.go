package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/freelance-escrow/internal/gateway"
	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
)

type mockTransactionRepo struct {
	mock.Mock
}

func (m *mockTransactionRepo) Create(ctx context.Context, t *models.Transaction) error {
	args := m.Called(ctx, t)
	if args.Error(0) == nil {
		t.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) GetByGatewayID(ctx context.Context, gatewayID string) (*models.Transaction, error) {
	args := m.Called(ctx, gatewayID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) SetGatewayRef(ctx context.Context, id uuid.UUID, gatewayID string) error {
	args := m.Called(ctx, id, gatewayID)
	return args.Error(0)
}

func (m *mockTransactionRepo) Confirm(ctx context.Context, id uuid.UUID, gatewayID string, cashbackRate float64) (*models.Transaction, float64, error) {
	args := m.Called(ctx, id, gatewayID, cashbackRate)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*models.Transaction), args.Get(1).(float64), args.Error(2)
}

func (m *mockTransactionRepo) Fail(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Transaction), args.Error(1)
}

type mockMilestoneRepo struct {
	mock.Mock
}

func (m *mockMilestoneRepo) Create(ctx context.Context, ms *models.Milestone) error {
	args := m.Called(ctx, ms)
	if args.Error(0) == nil {
		ms.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockMilestoneRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Milestone), args.Error(1)
}

func (m *mockMilestoneRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Milestone, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]models.Milestone), args.Error(1)
}

func (m *mockMilestoneRepo) SumAmounts(ctx context.Context, projectID uuid.UUID) (float64, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockMilestoneRepo) Start(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Milestone), args.Error(1)
}

func (m *mockMilestoneRepo) Complete(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Milestone), args.Error(1)
}

type mockProfileRepo struct {
	mock.Mock
}

func (m *mockProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *mockProfileRepo) UseCashback(ctx context.Context, userID uuid.UUID, projectID *uuid.UUID, amount float64) error {
	args := m.Called(ctx, userID, projectID, amount)
	return args.Error(0)
}

func (m *mockProfileRepo) ListCashback(ctx context.Context, userID uuid.UUID, limit int) ([]models.CashbackTransaction, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]models.CashbackTransaction), args.Error(1)
}

type paymentMocks struct {
	transactions *mockTransactionRepo
	milestones   *mockMilestoneRepo
	projects     *mockProjectRepo
	profiles     *mockProfileRepo
}

func newPaymentService(cashbackRate float64) (*PaymentService, paymentMocks) {
	m := paymentMocks{
		transactions: new(mockTransactionRepo),
		milestones:   new(mockMilestoneRepo),
		projects:     new(mockProjectRepo),
		profiles:     new(mockProfileRepo),
	}
	gw := gateway.NewSimulatedGateway("http://localhost:8080")
	svc := NewPaymentService(m.transactions, m.milestones, m.projects, m.profiles, gw, nil, 5, cashbackRate)
	return svc, m
}

func TestPaymentService_InitiatePayment_Success(t *testing.T) {
	svc, m := newPaymentService(0.02)
	ctx := context.Background()

	client := Actor{ID: uuid.New(), Role: models.UserTypeClient}
	projectID := uuid.New()
	milestoneID := uuid.New()
	freelancerID := uuid.New()

	m.milestones.On("GetByID", ctx, milestoneID).Return(&models.Milestone{
		ID: milestoneID, ProjectID: projectID, Title: "Вёрстка",
		Amount: 1000, Status: models.MilestoneStatusCompleted,
	}, nil)
	m.projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID: projectID, ClientID: client.ID, Title: "Сайт", Status: models.ProjectStatusInProgress,
	}, nil)
	m.projects.On("GetSelectedFreelancer", ctx, projectID).Return(freelancerID, nil)
	m.transactions.On("Create", ctx, mock.AnythingOfType("*models.Transaction")).Return(nil)
	m.profiles.On("GetByID", ctx, client.ID).Return(&models.Profile{
		ID: client.ID, Email: "client@example.com",
	}, nil)
	m.transactions.On("SetGatewayRef", ctx, mock.AnythingOfType("uuid.UUID"), mock.AnythingOfType("string")).Return(nil)

	intent, err := svc.InitiatePayment(ctx, client, milestoneID)
	assert.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, intent.Transaction.Status)
	assert.Equal(t, float64(1000), intent.Transaction.Amount)
	assert.Equal(t, freelancerID, intent.Transaction.PayeeID)
	assert.Contains(t, intent.PaymentURL, "/api/payments/process?transaction_id=")
	m.transactions.AssertExpectations(t)
}

func TestPaymentService_InitiatePayment_NotOwner(t *testing.T) {
	svc, m := newPaymentService(0.02)
	ctx := context.Background()

	stranger := Actor{ID: uuid.New(), Role: models.UserTypeClient}
	projectID := uuid.New()
	milestoneID := uuid.New()

	m.milestones.On("GetByID", ctx, milestoneID).Return(&models.Milestone{
		ID: milestoneID, ProjectID: projectID, Status: models.MilestoneStatusCompleted,
	}, nil)
	m.projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID: projectID, ClientID: uuid.New(), Status: models.ProjectStatusInProgress,
	}, nil)

	_, err := svc.InitiatePayment(ctx, stranger, milestoneID)
	assert.True(t, apperror.IsForbidden(err))
}

func TestPaymentService_InitiatePayment_DisputedProject(t *testing.T) {
	svc, m := newPaymentService(0.02)
	ctx := context.Background()

	client := Actor{ID: uuid.New(), Role: models.UserTypeClient}
	projectID := uuid.New()
	milestoneID := uuid.New()

	m.milestones.On("GetByID", ctx, milestoneID).Return(&models.Milestone{
		ID: milestoneID, ProjectID: projectID, Status: models.MilestoneStatusCompleted,
	}, nil)
	m.projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID: projectID, ClientID: client.ID, Status: models.ProjectStatusDisputed,
	}, nil)

	_, err := svc.InitiatePayment(ctx, client, milestoneID)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestPaymentService_InitiatePayment_MilestoneNotCompleted(t *testing.T) {
	svc, m := newPaymentService(0.02)
	ctx := context.Background()

	client := Actor{ID: uuid.New(), Role: models.UserTypeClient}
	projectID := uuid.New()
	milestoneID := uuid.New()

	m.milestones.On("GetByID", ctx, milestoneID).Return(&models.Milestone{
		ID: milestoneID, ProjectID: projectID, Status: models.MilestoneStatusInProgress,
	}, nil)
	m.projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID: projectID, ClientID: client.ID, Status: models.ProjectStatusInProgress,
	}, nil)

	_, err := svc.InitiatePayment(ctx, client, milestoneID)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestPaymentService_ConfirmPayment_Success(t *testing.T) {
	svc, m := newPaymentService(0.02)
	ctx := context.Background()

	transactionID := uuid.New()
	milestoneID := uuid.New()
	payerID := uuid.New()
	payeeID := uuid.New()

	// Ставка 2%: с платежа 1000.00 плательщику начисляется 20.00 кешбэка.
	m.transactions.On("Confirm", ctx, transactionID, "SIM_1", 0.02).Return(&models.Transaction{
		ID: transactionID, MilestoneID: &milestoneID, PayerID: payerID, PayeeID: payeeID,
		Amount: 1000, Status: models.TransactionStatusCompleted,
	}, 20.0, nil)

	transaction, err := svc.ConfirmPayment(ctx, transactionID.String(), "SIM_1")
	assert.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, transaction.Status)
	assert.Equal(t, float64(1000), transaction.Amount)
	m.transactions.AssertExpectations(t)
}

func TestPaymentService_ConfirmPayment_Replay(t *testing.T) {
	svc, m := newPaymentService(0.02)
	ctx := context.Background()

	transactionID := uuid.New()
	completed := &models.Transaction{
		ID: transactionID, Amount: 1000, Status: models.TransactionStatusCompleted,
	}

	// Повторная доставка webhook: охраняемое обновление не сработало,
	// возвращается уже завершённая транзакция без изменений балансов.
	m.transactions.On("Confirm", ctx, transactionID, "SIM_1", 0.02).
		Return(nil, float64(0), repository.ErrTransactionCompleted)
	m.transactions.On("GetByID", ctx, transactionID).Return(completed, nil)

	transaction, err := svc.ConfirmPayment(ctx, transactionID.String(), "SIM_1")
	assert.NoError(t, err)
	assert.Equal(t, completed, transaction)
	m.transactions.AssertExpectations(t)
}

func TestPaymentService_ConfirmPayment_UnknownReference(t *testing.T) {
	svc, m := newPaymentService(0.02)
	ctx := context.Background()

	m.transactions.On("GetByGatewayID", ctx, "NO_SUCH_REF").
		Return(nil, repository.ErrTransactionNotFound)

	_, err := svc.ConfirmPayment(ctx, "NO_SUCH_REF", "")
	assert.True(t, apperror.IsNotFound(err))
}

func TestPaymentService_ConfirmPayment_FailedTransaction(t *testing.T) {
	svc, m := newPaymentService(0.02)
	ctx := context.Background()

	transactionID := uuid.New()
	m.transactions.On("Confirm", ctx, transactionID, "", 0.02).
		Return(nil, float64(0), repository.ErrTransactionNotPending)

	_, err := svc.ConfirmPayment(ctx, transactionID.String(), "")
	assert.True(t, apperror.IsInvalidState(err))
}

func TestPaymentService_HandleGatewayCallback_Rejected(t *testing.T) {
	svc, m := newPaymentService(0.02)
	ctx := context.Background()

	transactionID := uuid.New()
	m.transactions.On("Fail", ctx, transactionID).Return(&models.Transaction{
		ID: transactionID, Amount: 500, Status: models.TransactionStatusFailed,
	}, nil)

	transaction, err := svc.HandleGatewayCallback(ctx, gateway.Callback{
		PaymentID: "SIM_2",
		Reference: transactionID.String(),
		Status:    gateway.CallbackStatusRejected,
	})
	assert.NoError(t, err)
	assert.Equal(t, models.TransactionStatusFailed, transaction.Status)
}

func TestPaymentService_HandleGatewayCallback_UnknownStatus(t *testing.T) {
	svc, _ := newPaymentService(0.02)
	ctx := context.Background()

	_, err := svc.HandleGatewayCallback(ctx, gateway.Callback{
		Reference: uuid.NewString(),
		Status:    "weird",
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestPaymentService_ListTransactions_DefaultLimit(t *testing.T) {
	svc, m := newPaymentService(0.02)
	ctx := context.Background()
	userID := uuid.New()

	m.transactions.On("ListByUser", ctx, userID, 20, 0).Return([]models.Transaction{}, nil)

	_, err := svc.ListTransactions(ctx, userID, 0, -5)
	assert.NoError(t, err)
	m.transactions.AssertExpectations(t)
}
