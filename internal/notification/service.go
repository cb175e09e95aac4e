package notification

import (
	"context"
	"time"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/logging"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/repository"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/types"
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

var log = logging.Component("Notification")

// Message is a notification addressed to one user.
type Message struct {
	RecipientID string
	Title       string
	Message     string
	Type        string
	Link        string
}

// Emitter delivers a payload to a connected user. Delivery is best-effort.
type Emitter interface {
	SendNotification(userID string, payload interface{})
}

// Service persists notifications and then pushes them live.
type Service struct {
	notificationRepo repository.NotificationRepository
	emitter          Emitter
}

// NewService creates a new notification service
func NewService(notificationRepo repository.NotificationRepository) *Service {
	return &Service{notificationRepo: notificationRepo}
}

func (s *Service) SetEmitter(e Emitter) {
	s.emitter = e
}

// Notify stores msg and emits it. Failures are logged and reported, never
// returned: a notification must not undo the change that caused it.
func (s *Service) Notify(ctx context.Context, msg Message) {
	if msg.RecipientID == "" {
		return
	}
	if !types.IsValidNotificationType(msg.Type) {
		msg.Type = types.NotificationInfo
	}

	n := &repository.Notification{
		UserID:  msg.RecipientID,
		Title:   msg.Title,
		Message: msg.Message,
		Type:    msg.Type,
	}
	if msg.Link != "" {
		link := msg.Link
		n.Link = &link
	}

	if err := s.notificationRepo.Create(ctx, n); err != nil {
		log.WithFields(logrus.Fields{"user_id": msg.RecipientID, "title": msg.Title}).
			WithError(err).Error("❌ Failed to persist notification")
		sentry.CaptureException(err)
		return
	}

	s.emit(n)
}

func (s *Service) emit(n *repository.Notification) {
	if s.emitter == nil {
		return
	}
	s.emitter.SendNotification(n.UserID, map[string]interface{}{
		"id":        n.ID,
		"type":      n.Type,
		"title":     n.Title,
		"message":   n.Message,
		"link":      n.Link,
		"isRead":    n.IsRead,
		"createdAt": n.CreatedAt.Format(time.RFC3339),
	})
}
