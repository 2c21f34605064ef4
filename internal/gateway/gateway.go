package gateway

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// PaymentGateway — контракт внешнего платёжного шлюза. Ядро создаёт intent и
// отдаёт пользователю redirect URL; результат приходит асинхронно через
// webhook и обрабатывается отдельным подтверждением. Вызов шлюза намеренно
// вынесен за пределы атомарной транзакции: если callback так и не придёт,
// транзакция остаётся pending и доступна для повторной сверки.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, params IntentParams) (*Intent, error)
}

// IntentParams описывает создаваемый платёж.
type IntentParams struct {
	Title       string
	Description string
	Amount      float64
	PayerEmail  string
	// Reference — внутренний идентификатор транзакции, возвращается шлюзом
	// в callback как external reference.
	Reference string
}

// Intent — ответ шлюза: куда отправить плательщика и внешний идентификатор.
type Intent struct {
	ID          string
	RedirectURL string
}

// CallbackStatus статусы, которые шлюз сообщает в webhook.
const (
	CallbackStatusApproved  = "approved"
	CallbackStatusRejected  = "rejected"
	CallbackStatusCancelled = "cancelled"
)

// Callback — разобранное тело webhook-уведомления шлюза.
type Callback struct {
	PaymentID string `json:"payment_id"`
	Reference string `json:"external_reference"`
	Status    string `json:"status"`
}

// SimulatedGateway — заглушка вместо реальной интеграции. Возвращает ссылку
// на внутренний маршрут, который немедленно завершает платёж.
type SimulatedGateway struct {
	baseURL string
}

// NewSimulatedGateway создаёт заглушку шлюза с базовым адресом приложения.
func NewSimulatedGateway(baseURL string) *SimulatedGateway {
	return &SimulatedGateway{baseURL: baseURL}
}

// CreateIntent имитирует создание платёжного намерения.
func (g *SimulatedGateway) CreateIntent(_ context.Context, params IntentParams) (*Intent, error) {
	if params.Amount <= 0 {
		return nil, fmt.Errorf("gateway: сумма должна быть положительной")
	}
	if params.Reference == "" {
		return nil, fmt.Errorf("gateway: reference обязателен")
	}

	redirect := fmt.Sprintf("%s/api/payments/process?transaction_id=%s",
		g.baseURL, url.QueryEscape(params.Reference))

	return &Intent{
		ID:          fmt.Sprintf("SIM_%d", time.Now().UnixNano()),
		RedirectURL: redirect,
	}, nil
}
