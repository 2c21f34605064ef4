package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-escrow/internal/gateway"
	"github.com/ignatzorin/freelance-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

// PaymentHandler обрабатывает оплату вех и callback платёжного шлюза.
type PaymentHandler struct {
	payments *service.PaymentService
}

func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Initiate создаёт pending транзакцию по завершённой вехе и возвращает
// redirect URL шлюза.
func (h *PaymentHandler) Initiate(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	milestoneID, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	intent, err := h.payments.InitiatePayment(c.Request.Context(), actor, milestoneID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"transaction": intent.Transaction,
		"payment_url": intent.PaymentURL,
	})
}

// Process завершает платёж по ссылке симулированного шлюза.
// Повторный вызов возвращает уже завершённую транзакцию без изменений.
func (h *PaymentHandler) Process(c *gin.Context) {
	reference := c.Query("transaction_id")
	if reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "параметр transaction_id обязателен"})
		return
	}

	transaction, err := h.payments.ConfirmPayment(c.Request.Context(), reference, "")
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "платёж обработан",
		"transaction": transaction,
	})
}

// Webhook принимает callback платёжного шлюза.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var cb gateway.Callback
	if err := c.ShouldBindJSON(&cb); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректное тело запроса"})
		return
	}

	transaction, err := h.payments.HandleGatewayCallback(c.Request.Context(), cb)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// Transactions возвращает транзакции текущего пользователя.
func (h *PaymentHandler) Transactions(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	limit, offset := common.GetPagination(c)

	transactions, err := h.payments.ListTransactions(c.Request.Context(), actor.ID, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"limit":        limit,
		"offset":       offset,
	})
}
