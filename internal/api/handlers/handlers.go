package handlers

import (
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/service"
)

// CountPublisher pushes unread counts to a user's live connections.
type CountPublisher interface {
	SendNotificationCount(userID string, total, unread int)
}

type noopCountPublisher struct{}

func (noopCountPublisher) SendNotificationCount(string, int, int) {}

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth         *AuthHandler
	User         *UserHandler
	Team         *TeamHandler
	Task         *TaskHandler
	TimeLog      *TimeLogHandler
	Notification *NotificationHandler
	Dashboard    *DashboardHandler
}

// NewHandlers creates all handlers. counts may be nil.
func NewHandlers(services *service.Services, counts CountPublisher) *Handlers {
	if counts == nil {
		counts = noopCountPublisher{}
	}
	return &Handlers{
		Auth:         &AuthHandler{authService: services.Auth},
		User:         &UserHandler{userService: services.User},
		Team:         &TeamHandler{teamService: services.Team},
		Task:         &TaskHandler{taskService: services.Task},
		TimeLog:      &TimeLogHandler{timeLogService: services.TimeLog},
		Notification: &NotificationHandler{notificationService: services.Notification, counts: counts},
		Dashboard:    &DashboardHandler{dashboardService: services.Dashboard},
	}
}
