package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/freelance-escrow/internal/http/middleware"
)

// authAs подставляет аутентифицированного пользователя в контекст запроса.
func authAs(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, uuid.New())
		c.Set(middleware.ContextRoleKey, role)
		c.Next()
	}
}

func TestProjectHandler_Create_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ProjectHandler{projects: nil}
	r.POST("/projects", handler.Create)

	req, _ := http.NewRequest("POST", "/projects", strings.NewReader(`{"title":"t","description":"d"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProjectHandler_Create_InvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(authAs("client"))
	handler := &ProjectHandler{projects: nil}
	r.POST("/projects", handler.Create)

	req, _ := http.NewRequest("POST", "/projects", strings.NewReader(`{"title":""}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProjectHandler_Get_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(authAs("client"))
	handler := &ProjectHandler{projects: nil}
	r.GET("/projects/:id", handler.Get)

	req, _ := http.NewRequest("GET", "/projects/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProposalHandler_Submit_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ProposalHandler{projects: nil}
	r.POST("/projects/:id/proposals", handler.Submit)

	req, _ := http.NewRequest("POST", "/projects/22222222-2222-2222-2222-222222222222/proposals", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDisputeHandler_Resolve_InvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(authAs("admin"))
	handler := &DisputeHandler{disputes: nil}
	r.POST("/disputes/:id/resolve", handler.Resolve)

	req, _ := http.NewRequest("POST", "/disputes/33333333-3333-3333-3333-333333333333/resolve", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
