package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/logger"
	"gearshare-backend/internal/repository"
)

func newEvent(typ domain.EventType, userID int64, title, message string, relatedID int64) domain.Event {
	return domain.Event{
		ID:         uuid.NewString(),
		Type:       typ,
		UserID:     userID,
		Title:      title,
		Message:    message,
		RelatedID:  relatedID,
		OccurredAt: time.Now(),
	}
}

// Dispatcher fans domain events out to the notification outbox and the
// email service. Services call it only after releasing the rental lock;
// dispatch failures are logged and never roll back the mutation.
type Dispatcher struct {
	noteRepo  repository.NotificationRepository
	directory Directory
	emailSvc  EmailService
}

func NewDispatcher(noteRepo repository.NotificationRepository, directory Directory, emailSvc EmailService) *Dispatcher {
	return &Dispatcher{noteRepo: noteRepo, directory: directory, emailSvc: emailSvc}
}

func (d *Dispatcher) Dispatch(ctx context.Context, events []domain.Event) {
	for _, ev := range events {
		if ev.UserID != 0 {
			n := &domain.Notification{
				UserID:  ev.UserID,
				Title:   ev.Title,
				Message: ev.Message,
				Attributes: map[string]string{
					"type":       string(ev.Type),
					"event_id":   ev.ID,
					"related_id": formatID(ev.RelatedID),
				},
			}
			if err := d.noteRepo.Create(ctx, n); err != nil {
				logger.Error("Failed to persist notification", "event", ev.Type, "user_id", ev.UserID, "error", err)
			}
		}

		d.email(ctx, ev)
	}
}

func (d *Dispatcher) email(ctx context.Context, ev domain.Event) {
	if d.emailSvc == nil || d.directory == nil || ev.UserID == 0 {
		return
	}
	name, email, err := d.directory.Lookup(ctx, ev.UserID)
	if err != nil || email == "" {
		logger.Debug("No contact details for user, skipping email", "user_id", ev.UserID, "error", err)
		return
	}
	if err := d.emailSvc.SendEventNotification(ctx, email, name, ev.Title, ev.Message); err != nil {
		logger.Error("Failed to send event email", "event", ev.Type, "user_id", ev.UserID, "error", err)
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Alert emails the administrator mailbox, best-effort.
func (d *Dispatcher) Alert(ctx context.Context, subject, body string) {
	if d.emailSvc == nil {
		return
	}
	if err := d.emailSvc.SendAdminAlert(ctx, subject, body); err != nil {
		logger.Error("Failed to send admin alert", "subject", subject, "error", err)
	}
}
