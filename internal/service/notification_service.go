package service

import (
	"context"
	"errors"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/policy"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/repository"
)

// NotificationListLimit caps how many notifications List returns.
const NotificationListLimit = 20

type NotificationCount struct {
	Total  int `json:"total"`
	Unread int `json:"unread"`
}

type NotificationService interface {
	List(ctx context.Context, actor *Actor, unreadOnly bool) ([]*repository.Notification, error)
	Count(ctx context.Context, actor *Actor) (*NotificationCount, error)
	MarkAsRead(ctx context.Context, actor *Actor, id string) error
	MarkAllAsRead(ctx context.Context, actor *Actor) (int64, error)
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
}

func NewNotificationService(notificationRepo repository.NotificationRepository) NotificationService {
	return &notificationService{notificationRepo: notificationRepo}
}

func (s *notificationService) List(ctx context.Context, actor *Actor, unreadOnly bool) ([]*repository.Notification, error) {
	if err := authorize(actor, policy.NotificationRead); err != nil {
		return nil, err
	}
	list, err := s.notificationRepo.FindByUserID(ctx, actor.ID, unreadOnly, NotificationListLimit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*repository.Notification{}
	}
	return list, nil
}

func (s *notificationService) Count(ctx context.Context, actor *Actor) (*NotificationCount, error) {
	if err := authorize(actor, policy.NotificationRead); err != nil {
		return nil, err
	}
	total, unread, err := s.notificationRepo.CountByUserID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return &NotificationCount{Total: total, Unread: unread}, nil
}

// MarkAsRead answers NotFound for notifications owned by someone else.
func (s *notificationService) MarkAsRead(ctx context.Context, actor *Actor, id string) error {
	if err := authorize(actor, policy.NotificationRead); err != nil {
		return err
	}
	err := s.notificationRepo.MarkAsRead(ctx, id, actor.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return NotFound("Notification not found")
	}
	return err
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, actor *Actor) (int64, error) {
	if err := authorize(actor, policy.NotificationRead); err != nil {
		return 0, err
	}
	return s.notificationRepo.MarkAllAsRead(ctx, actor.ID)
}
