package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestPaymentHandler_Initiate_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PaymentHandler{payments: nil}
	r.POST("/milestones/:id/pay", handler.Initiate)

	req, _ := http.NewRequest("POST", "/milestones/11111111-1111-1111-1111-111111111111/pay", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaymentHandler_Initiate_InvalidMilestoneID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(authAs("client"))
	handler := &PaymentHandler{payments: nil}
	r.POST("/milestones/:id/pay", handler.Initiate)

	req, _ := http.NewRequest("POST", "/milestones/invalid-uuid/pay", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandler_Process_MissingTransactionID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PaymentHandler{payments: nil}
	r.GET("/payments/process", handler.Process)

	req, _ := http.NewRequest("GET", "/payments/process", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandler_Webhook_InvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PaymentHandler{payments: nil}
	r.POST("/webhooks/payments", handler.Webhook)

	req, _ := http.NewRequest("POST", "/webhooks/payments", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandler_Transactions_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PaymentHandler{payments: nil}
	r.GET("/payments/transactions", handler.Transactions)

	req, _ := http.NewRequest("GET", "/payments/transactions", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
