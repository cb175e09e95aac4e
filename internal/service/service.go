package service

import (
	"context"
	"time"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/config"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/notification"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/policy"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/repository"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/types"
)

// ============================================
// Actor
// ============================================

// Actor is the authenticated identity behind a request, reloaded from
// storage on every request.
type Actor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	AdminAccess bool   `json:"adminAccess"`
}

func (a *Actor) IsSuperAdmin() bool {
	return a.Role == types.RoleSuperAdmin
}

func actorFromUser(u *repository.User) *Actor {
	return &Actor{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		AdminAccess: u.AdminAccess,
	}
}

// gate rejects Admin accounts that have not been approved.
func gate(actor *Actor) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if actor.Role == types.RoleAdmin && !actor.AdminAccess {
		return ErrPendingApproval
	}
	return nil
}

// authorize checks the approval gate and the policy table for op.
func authorize(actor *Actor, op policy.Operation) error {
	if err := gate(actor); err != nil {
		return err
	}
	if !policy.Allows(actor.Role, op) {
		return ErrForbidden
	}
	return nil
}

// ============================================
// Collaborators
// ============================================

// Notifier persists and delivers notifications. It never fails the caller.
type Notifier interface {
	Notify(ctx context.Context, msg notification.Message)
}

// ActorCache caches resolved actors between requests.
type ActorCache interface {
	Get(ctx context.Context, userID string) (*Actor, bool)
	Set(ctx context.Context, actor *Actor)
	Invalidate(ctx context.Context, userID string)
}

type noopActorCache struct{}

func (noopActorCache) Get(context.Context, string) (*Actor, bool) { return nil, false }
func (noopActorCache) Set(context.Context, *Actor)                {}
func (noopActorCache) Invalidate(context.Context, string)         {}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, notification.Message) {}

// ============================================
// Services Container
// ============================================

type Services struct {
	Auth         AuthService
	User         UserService
	Team         TeamService
	Task         TaskService
	TimeLog      TimeLogService
	Notification NotificationService
	Dashboard    DashboardService
}

// ServiceDeps contains all dependencies needed to create services
type ServiceDeps struct {
	Config     *config.Config
	Repos      *repository.Repositories
	Notifier   Notifier
	ActorCache ActorCache
	// Clock defaults to time.Now.
	Clock func() time.Time
}

func NewServices(deps *ServiceDeps) *Services {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}
	cache := deps.ActorCache
	if cache == nil {
		cache = noopActorCache{}
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	repos := deps.Repos
	return &Services{
		Auth:         NewAuthService(deps.Config, repos.UserRepo, cache, clock),
		User:         NewUserService(repos.UserRepo, cache),
		Team:         NewTeamService(repos.TeamRepo, repos.UserRepo),
		Task:         NewTaskService(repos.TaskRepo, repos.TaskEventRepo, repos.TeamRepo, repos.ReportRepo, notifier, clock),
		TimeLog:      NewTimeLogService(repos.TimeLogRepo, repos.TaskRepo, clock),
		Notification: NewNotificationService(repos.NotificationRepo),
		Dashboard:    NewDashboardService(repos.ReportRepo, clock),
	}
}
