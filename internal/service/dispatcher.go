package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/event"
	"github.com/ignatzorin/freelance-escrow/internal/goroutine"
	"github.com/ignatzorin/freelance-escrow/internal/logger"
)

// Notifier доставляет уведомление пользователю.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, eventType, title, message, link string, metadata interface{}) error
}

// Auditor пишет запись в журнал аудита.
type Auditor interface {
	Audit(ctx context.Context, userID *uuid.UUID, action, entityType string, entityID uuid.UUID, entityCode string, details interface{}) error
}

// Dispatcher рассылает события переходов после фиксации основной транзакции.
// Доставка выполняется в безопасной горутине; ошибки уведомлений и аудита
// логируются и не влияют на уже совершённый переход.
type Dispatcher struct {
	notifier Notifier
	auditor  Auditor
}

// NewDispatcher создаёт диспетчер событий.
func NewDispatcher(notifier Notifier, auditor Auditor) *Dispatcher {
	return &Dispatcher{notifier: notifier, auditor: auditor}
}

// Dispatch асинхронно доставляет список событий. Вызывается строго после
// коммита транзакции, поэтому отменённый входящий контекст не должен
// прерывать доставку.
func (d *Dispatcher) Dispatch(ctx context.Context, events []event.Event) {
	if d == nil || len(events) == 0 {
		return
	}

	goroutine.SafeGoWithContext(context.WithoutCancel(ctx), func(ctx context.Context) {
		for _, ev := range events {
			d.deliver(ctx, ev)
		}
	})
}

func (d *Dispatcher) deliver(ctx context.Context, ev event.Event) {
	log := logger.WithComponent("dispatcher")

	if d.auditor != nil && ev.Audit.Action != "" {
		err := d.auditor.Audit(ctx, ev.ActorID, ev.Audit.Action, ev.Audit.EntityType, ev.Audit.EntityID, ev.Audit.EntityCode, ev.Payload)
		if err != nil {
			log.WithError(err).Warnf("audit failed: %s", ev.Audit.Action)
		}
	}

	if d.notifier == nil {
		return
	}
	for _, userID := range ev.Recipients {
		err := d.notifier.Notify(ctx, userID, string(ev.Type), ev.Title, ev.Message, ev.Link, ev.Payload)
		if err != nil {
			log.WithError(err).Warnf("notify failed: %s -> %s", ev.Type, userID)
		}
	}
}
