package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/policy"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/repository"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/types"
)

// ============================================
// Team Service
// ============================================

const (
	DefaultTeamPageSize = 5
	MaxTeamPageSize     = 50
)

type TeamListInput struct {
	Page   int
	Limit  int
	Search string
}

type TeamPage struct {
	Teams []*repository.Team `json:"teams"`
	Total int                `json:"total"`
	Page  int                `json:"page"`
	Pages int                `json:"pages"`
}

type TeamService interface {
	Create(ctx context.Context, actor *Actor, name string) (*repository.Team, error)
	List(ctx context.Context, actor *Actor, in TeamListInput) (*TeamPage, error)
	Get(ctx context.Context, actor *Actor, teamID string) (*repository.Team, error)
	Rename(ctx context.Context, actor *Actor, teamID, name string) (*repository.Team, error)
	Delete(ctx context.Context, actor *Actor, teamID string) error

	AddMember(ctx context.Context, actor *Actor, teamID, userID string) (*repository.Team, error)
	RemoveMember(ctx context.Context, actor *Actor, teamID, userID string) error
	// TransferMember moves a user between two teams atomically.
	TransferMember(ctx context.Context, actor *Actor, fromTeamID, toTeamID, userID string) error
}

type teamService struct {
	teamRepo repository.TeamRepository
	userRepo repository.UserRepository
}

func NewTeamService(teamRepo repository.TeamRepository, userRepo repository.UserRepository) TeamService {
	return &teamService{teamRepo: teamRepo, userRepo: userRepo}
}

func normalizeTeamName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < 3 || n > 50 {
		return "", Validation("InvalidTeamName", "Team name must be 3-50 characters")
	}
	return name, nil
}

// managedTeam loads a team the actor may change: any team for a SuperAdmin,
// an owned team for an Admin.
func (s *teamService) managedTeam(ctx context.Context, actor *Actor, teamID string) (*repository.Team, error) {
	team, err := s.teamRepo.FindByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, NotFound("Team not found")
	}
	if actor.IsSuperAdmin() {
		return team, nil
	}
	if team.CreatedBy == nil || *team.CreatedBy != actor.ID {
		return nil, Forbidden("You can only manage teams you created")
	}
	return team, nil
}

func (s *teamService) withMembers(ctx context.Context, team *repository.Team) (*repository.Team, error) {
	members, err := s.teamRepo.FindMembers(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []*repository.TeamMember{}
	}
	team.Members = members
	return team, nil
}

func (s *teamService) Create(ctx context.Context, actor *Actor, name string) (*repository.Team, error) {
	if err := authorize(actor, policy.TeamCreate); err != nil {
		return nil, err
	}
	name, err := normalizeTeamName(name)
	if err != nil {
		return nil, err
	}

	team := &repository.Team{Name: name, CreatedBy: &actor.ID}
	if err := s.teamRepo.Create(ctx, team, true); err != nil {
		if repository.IsDuplicate(err, repository.ConstraintTeamName) {
			return nil, ErrDuplicateTeamName
		}
		return nil, err
	}
	return s.withMembers(ctx, team)
}

func (s *teamService) List(ctx context.Context, actor *Actor, in TeamListInput) (*TeamPage, error) {
	if err := authorize(actor, policy.TeamList); err != nil {
		return nil, err
	}

	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit < 1 {
		limit = DefaultTeamPageSize
	}
	if limit > MaxTeamPageSize {
		limit = MaxTeamPageSize
	}

	filter := repository.TeamFilter{
		Search: in.Search,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	switch actor.Role {
	case types.RoleAdmin:
		filter.CreatedBy = actor.ID
	case types.RoleMember:
		filter.MemberID = actor.ID
	}

	teams, total, err := s.teamRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, team := range teams {
		if _, err := s.withMembers(ctx, team); err != nil {
			return nil, err
		}
	}
	if teams == nil {
		teams = []*repository.Team{}
	}

	return &TeamPage{
		Teams: teams,
		Total: total,
		Page:  page,
		Pages: (total + limit - 1) / limit,
	}, nil
}

func (s *teamService) Get(ctx context.Context, actor *Actor, teamID string) (*repository.Team, error) {
	if err := authorize(actor, policy.TeamGet); err != nil {
		return nil, err
	}

	team, err := s.teamRepo.FindByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, NotFound("Team not found")
	}

	switch actor.Role {
	case types.RoleAdmin:
		if team.CreatedBy == nil || *team.CreatedBy != actor.ID {
			return nil, Forbidden("You can only view teams you created")
		}
	case types.RoleMember:
		ok, err := s.teamRepo.IsMember(ctx, teamID, actor.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, Forbidden("You are not a member of this team")
		}
	}
	return s.withMembers(ctx, team)
}

func (s *teamService) Rename(ctx context.Context, actor *Actor, teamID, name string) (*repository.Team, error) {
	if err := authorize(actor, policy.TeamUpdate); err != nil {
		return nil, err
	}
	name, err := normalizeTeamName(name)
	if err != nil {
		return nil, err
	}
	if _, err := s.managedTeam(ctx, actor, teamID); err != nil {
		return nil, err
	}

	team, err := s.teamRepo.Rename(ctx, teamID, name)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, NotFound("Team not found")
		case repository.IsDuplicate(err, repository.ConstraintTeamName):
			return nil, ErrDuplicateTeamName
		}
		return nil, err
	}
	return s.withMembers(ctx, team)
}

func (s *teamService) Delete(ctx context.Context, actor *Actor, teamID string) error {
	if err := authorize(actor, policy.TeamDelete); err != nil {
		return err
	}
	if _, err := s.managedTeam(ctx, actor, teamID); err != nil {
		return err
	}
	if err := s.teamRepo.Delete(ctx, teamID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotFound("Team not found")
		}
		return err
	}
	return nil
}

// ============================================
// Membership
// ============================================

func (s *teamService) AddMember(ctx context.Context, actor *Actor, teamID, userID string) (*repository.Team, error) {
	if err := authorize(actor, policy.TeamAddMember); err != nil {
		return nil, err
	}
	team, err := s.managedTeam(ctx, actor, teamID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NotFound("User not found")
	}

	current, err := s.teamRepo.FindTeamIDByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current != "" {
		return nil, ErrAlreadyTeamed
	}

	// The unique constraint settles a concurrent add that passed the check above.
	if err := s.teamRepo.AddMember(ctx, teamID, userID); err != nil {
		if repository.IsDuplicate(err, repository.ConstraintTeamMemberUser, repository.ConstraintTeamMemberPK) {
			return nil, ErrAlreadyTeamed
		}
		return nil, err
	}
	return s.withMembers(ctx, team)
}

func (s *teamService) RemoveMember(ctx context.Context, actor *Actor, teamID, userID string) error {
	if err := authorize(actor, policy.TeamRemoveMember); err != nil {
		return err
	}
	if _, err := s.managedTeam(ctx, actor, teamID); err != nil {
		return err
	}
	if err := s.teamRepo.RemoveMember(ctx, teamID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotFound("User is not a member of this team")
		}
		return err
	}
	return nil
}

func (s *teamService) TransferMember(ctx context.Context, actor *Actor, fromTeamID, toTeamID, userID string) error {
	if err := authorize(actor, policy.TeamTransferMember); err != nil {
		return err
	}
	if fromTeamID == toTeamID {
		return Validation("SameTeam", "Source and destination teams must differ")
	}
	if _, err := s.managedTeam(ctx, actor, fromTeamID); err != nil {
		return err
	}
	if _, err := s.managedTeam(ctx, actor, toTeamID); err != nil {
		return err
	}

	if err := s.teamRepo.TransferMember(ctx, fromTeamID, toTeamID, userID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return NotFound("User is not a member of the source team")
		case repository.IsDuplicate(err, repository.ConstraintTeamMemberUser, repository.ConstraintTeamMemberPK):
			return ErrAlreadyTeamed
		}
		return err
	}
	return nil
}
