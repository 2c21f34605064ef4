package models

// ProjectStatus константы статусов проектов
const (
	ProjectStatusOpen       = "open"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusCompleted  = "completed"
	ProjectStatusCancelled  = "cancelled"
	ProjectStatusDisputed   = "disputed"
)

// ProposalStatus константы статусов предложений
const (
	ProposalStatusPending   = "pending"
	ProposalStatusAccepted  = "accepted"
	ProposalStatusRejected  = "rejected"
	ProposalStatusWithdrawn = "withdrawn"
)

// MilestoneStatus константы статусов вех
const (
	MilestoneStatusPending    = "pending"
	MilestoneStatusInProgress = "in_progress"
	MilestoneStatusCompleted  = "completed"
	MilestoneStatusPaid       = "paid"
)

// Типы транзакций
const (
	TransactionTypeEscrow  = "escrow"
	TransactionTypeRelease = "release"
	TransactionTypeRefund  = "refund"
	TransactionTypePayout  = "payout"
)

// Статусы транзакций
const (
	TransactionStatusPending    = "pending"
	TransactionStatusProcessing = "processing"
	TransactionStatusCompleted  = "completed"
	TransactionStatusFailed     = "failed"
	TransactionStatusCancelled  = "cancelled"
)

// Статусы споров
const (
	DisputeStatusOpen        = "open"
	DisputeStatusUnderReview = "under_review"
	DisputeStatusResolved    = "resolved"
	DisputeStatusClosed      = "closed"
)

// Типы кешбэк-операций
const (
	CashbackTypeEarned = "earned"
	CashbackTypeUsed   = "used"
)

// Роли пользователей
const (
	UserTypeClient     = "client"
	UserTypeFreelancer = "freelancer"
	UserTypeAdmin      = "admin"
)

// ValidProjectStatuses список валидных статусов проектов
var ValidProjectStatuses = map[string]struct{}{
	ProjectStatusOpen:       {},
	ProjectStatusInProgress: {},
	ProjectStatusCompleted:  {},
	ProjectStatusCancelled:  {},
	ProjectStatusDisputed:   {},
}

// ValidProposalStatuses список валидных статусов предложений
var ValidProposalStatuses = map[string]struct{}{
	ProposalStatusPending:   {},
	ProposalStatusAccepted:  {},
	ProposalStatusRejected:  {},
	ProposalStatusWithdrawn: {},
}

// MilestoneStatusRank задаёт порядок статусов вехи: переходы только вперёд.
var MilestoneStatusRank = map[string]int{
	MilestoneStatusPending:    0,
	MilestoneStatusInProgress: 1,
	MilestoneStatusCompleted:  2,
	MilestoneStatusPaid:       3,
}
