package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

// NotificationHandler обрабатывает уведомления пользователя.
type NotificationHandler struct {
	notifications *service.NotificationService
}

func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List возвращает уведомления текущего пользователя.
// Query параметр unread_only=true фильтрует непрочитанные.
func (h *NotificationHandler) List(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	limit, offset := common.GetPagination(c)
	unreadOnly := c.Query("unread_only") == "true"

	notifications, err := h.notifications.ListNotifications(c.Request.Context(), actor.ID, limit, offset, unreadOnly)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"limit":         limit,
		"offset":        offset,
	})
}

// UnreadCount возвращает число непрочитанных уведомлений.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	count, err := h.notifications.CountUnread(c.Request.Context(), actor.ID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkAsRead отмечает уведомление прочитанным. Чужое уведомление
// отметить нельзя.
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	id, ok := common.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.notifications.MarkAsRead(c.Request.Context(), id, actor.ID); err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "уведомление прочитано"})
}

// MarkAllAsRead отмечает все уведомления пользователя прочитанными.
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	if err := h.notifications.MarkAllAsRead(c.Request.Context(), actor.ID); err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "все уведомления прочитаны"})
}
