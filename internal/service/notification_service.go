package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/logger"
	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
)

// NotificationRepository описывает взаимодействие сервиса с хранилищем уведомлений.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// NotificationPusher доставляет уведомление по открытым WebSocket соединениям.
type NotificationPusher interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// NotificationService содержит бизнес-логику работы с уведомлениями.
// Сначала уведомление сохраняется, затем отправляется онлайн-подписчикам;
// сбой push не считается ошибкой.
type NotificationService struct {
	repo   NotificationRepository
	pusher NotificationPusher
}

// NewNotificationService создаёт новый сервис уведомлений.
func NewNotificationService(repo NotificationRepository, pusher NotificationPusher) *NotificationService {
	return &NotificationService{repo: repo, pusher: pusher}
}

// Notify сохраняет уведомление и отправляет его по WebSocket.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, eventType, title, message, link string, metadata interface{}) error {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("notification service: marshal metadata %w", err)
	}

	notification := &models.Notification{
		UserID:   userID,
		Type:     eventType,
		Title:    title,
		Message:  message,
		Metadata: raw,
		IsRead:   false,
	}
	if link != "" {
		notification.Link = &link
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}

	if s.pusher != nil {
		if err := s.pusher.BroadcastToUser(userID, eventType, notification); err != nil {
			logger.WithComponent("notification").WithError(err).Warn("push failed")
		}
	}

	return nil
}

// ListNotifications возвращает список уведомлений пользователя.
func (s *NotificationService) ListNotifications(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	return s.repo.List(ctx, userID, limit, offset, unreadOnly)
}

// MarkAsRead отмечает уведомление как прочитанное.
func (s *NotificationService) MarkAsRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	notification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeNotFound, "уведомление не найдено")
	}

	if notification.UserID != userID {
		return apperror.ErrForbidden
	}

	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead отмечает все уведомления пользователя как прочитанные.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// CountUnread возвращает количество непрочитанных уведомлений.
func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}
