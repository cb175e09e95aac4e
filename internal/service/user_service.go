package service

import (
	"context"
	"errors"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/policy"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/repository"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/types"
)

// ============================================
// User Service
// ============================================

type UserService interface {
	// List returns every user to a SuperAdmin and Members only to an Admin.
	List(ctx context.Context, actor *Actor) ([]*repository.User, error)
	ListAdmins(ctx context.Context, actor *Actor) ([]*repository.User, error)
	ToggleAdminAccess(ctx context.Context, actor *Actor, userID string) (*repository.User, error)
	Delete(ctx context.Context, actor *Actor, userID string) error
}

type userService struct {
	userRepo repository.UserRepository
	cache    ActorCache
}

func NewUserService(userRepo repository.UserRepository, cache ActorCache) UserService {
	return &userService{userRepo: userRepo, cache: cache}
}

func (s *userService) List(ctx context.Context, actor *Actor) ([]*repository.User, error) {
	if err := authorize(actor, policy.UserList); err != nil {
		return nil, err
	}
	roles := []string{types.RoleMember}
	if actor.IsSuperAdmin() {
		roles = types.ValidRoles
	}
	return s.userRepo.FindByRoles(ctx, roles)
}

func (s *userService) ListAdmins(ctx context.Context, actor *Actor) ([]*repository.User, error) {
	if err := authorize(actor, policy.UserListAdmins); err != nil {
		return nil, err
	}
	return s.userRepo.FindByRoles(ctx, []string{types.RoleAdmin})
}

func (s *userService) ToggleAdminAccess(ctx context.Context, actor *Actor, userID string) (*repository.User, error) {
	if err := authorize(actor, policy.UserToggleAccess); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NotFound("User not found")
	}
	if user.Role != types.RoleAdmin {
		return nil, Validation("NotAnAdmin", "Admin access can only be toggled for Admin users")
	}

	access, err := s.userRepo.ToggleAdminAccess(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("User not found")
		}
		return nil, err
	}
	s.cache.Invalidate(ctx, userID)

	user.AdminAccess = access
	return user, nil
}

func (s *userService) Delete(ctx context.Context, actor *Actor, userID string) error {
	if err := authorize(actor, policy.UserDelete); err != nil {
		return err
	}
	if userID == actor.ID {
		return Validation("SelfDelete", "You cannot delete your own account")
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotFound("User not found")
		}
		return err
	}
	s.cache.Invalidate(ctx, userID)
	return nil
}
