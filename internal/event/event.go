package event

import (
	"github.com/google/uuid"
)

// События переходов состояний. Каждая операция ядра возвращает список событий,
// который диспетчеризуется только после фиксации основной транзакции: сбой
// уведомления или аудита не влияет на уже совершённый переход.
//
// Полезные нагрузки типизированы; Extra — расширение на будущее для полей,
// которых ещё нет в структуре.

// Type имя типа события.
type Type string

const (
	TypeProjectCreated     Type = "project_created"
	TypeProposalSubmitted  Type = "proposal_submitted"
	TypeProposalAccepted   Type = "proposal_accepted"
	TypeProposalWithdrawn  Type = "proposal_withdrawn"
	TypeProjectCompleted   Type = "project_completed"
	TypeProjectCancelled   Type = "project_cancelled"
	TypeMilestoneCreated   Type = "milestone_created"
	TypeMilestoneStarted   Type = "milestone_started"
	TypeMilestoneCompleted Type = "milestone_completed"
	TypePaymentInitiated   Type = "payment_initiated"
	TypePaymentConfirmed   Type = "payment_confirmed"
	TypePaymentFailed      Type = "payment_failed"
	TypeDisputeOpened      Type = "dispute_opened"
	TypeDisputeUnderReview Type = "dispute_under_review"
	TypeDisputeResolved    Type = "dispute_resolved"
	TypeDisputeClosed      Type = "dispute_closed"
	TypeCashbackAccrued    Type = "cashback_accrued"
	TypeCashbackUsed       Type = "cashback_used"
)

// Event — одно событие перехода.
type Event struct {
	Type Type

	// ActorID — кто совершил действие (nil для webhook-переходов).
	ActorID *uuid.UUID

	// Recipients — кому отправить уведомление.
	Recipients []uuid.UUID

	Title   string
	Message string
	Link    string

	// Audit — данные для журнала аудита.
	Audit AuditRecord

	// Payload — типизированная нагрузка, уходит в metadata уведомления.
	Payload Payload
}

// AuditRecord описывает запись журнала для события.
type AuditRecord struct {
	Action     string
	EntityType string
	EntityID   uuid.UUID
	EntityCode string
}

// Payload — типизированная полезная нагрузка события.
type Payload struct {
	ProjectID     *uuid.UUID     `json:"project_id,omitempty"`
	ProposalID    *uuid.UUID     `json:"proposal_id,omitempty"`
	MilestoneID   *uuid.UUID     `json:"milestone_id,omitempty"`
	TransactionID *uuid.UUID     `json:"transaction_id,omitempty"`
	DisputeID     *uuid.UUID     `json:"dispute_id,omitempty"`
	Amount        *float64       `json:"amount,omitempty"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// ID удобный конструктор указателя на uuid.
func ID(v uuid.UUID) *uuid.UUID { return &v }

// Amount удобный конструктор указателя на сумму.
func Amount(v float64) *float64 { return &v }
