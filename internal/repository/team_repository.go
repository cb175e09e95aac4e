package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TeamFilter narrows a team listing. Empty fields are ignored.
type TeamFilter struct {
	CreatedBy string
	MemberID  string
	Search    string
	Limit     int
	Offset    int
}

// ============================================
// Team Repository Interface
// ============================================

type TeamRepository interface {
	// Create inserts the team. When addCreator is set the creator becomes a
	// member unless they already belong to a team.
	Create(ctx context.Context, team *Team, addCreator bool) error
	FindByID(ctx context.Context, id string) (*Team, error)
	List(ctx context.Context, filter TeamFilter) ([]*Team, int, error)
	Rename(ctx context.Context, id, name string) (*Team, error)
	Delete(ctx context.Context, id string) error

	// Member operations
	AddMember(ctx context.Context, teamID, userID string) error
	RemoveMember(ctx context.Context, teamID, userID string) error
	// TransferMember moves the user between teams in one transaction.
	TransferMember(ctx context.Context, fromTeamID, toTeamID, userID string) error
	FindMembers(ctx context.Context, teamID string) ([]*TeamMember, error)
	// FindTeamIDByUser returns the id of the team the user belongs to, or "".
	FindTeamIDByUser(ctx context.Context, userID string) (string, error)
	IsMember(ctx context.Context, teamID, userID string) (bool, error)
}

// ============================================
// PostgreSQL Team Repository Implementation
// ============================================

type pgTeamRepository struct {
	pool *pgxpool.Pool
}

func NewTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &pgTeamRepository{pool: pool}
}

func (r *pgTeamRepository) Create(ctx context.Context, team *Team, addCreator bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO teams (name, created_by)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, team.Name, team.CreatedBy).Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		return translateError(err)
	}

	if addCreator && team.CreatedBy != nil {
		// DO NOTHING also absorbs the one-team-per-user constraint.
		_, err = tx.Exec(ctx, `
			INSERT INTO team_members (team_id, user_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, team.ID, *team.CreatedBy)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *pgTeamRepository) FindByID(ctx context.Context, id string) (*Team, error) {
	team := &Team{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, created_by, created_at, updated_at
		FROM teams WHERE id = $1
	`, id).Scan(&team.ID, &team.Name, &team.CreatedBy, &team.CreatedAt, &team.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (r *pgTeamRepository) List(ctx context.Context, filter TeamFilter) ([]*Team, int, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		where = append(where, "t.created_by = $"+strconv.Itoa(len(args)))
	}
	if filter.MemberID != "" {
		args = append(args, filter.MemberID)
		where = append(where, "EXISTS (SELECT 1 FROM team_members m WHERE m.team_id = t.id AND m.user_id = $"+strconv.Itoa(len(args))+")")
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, "t.name ILIKE $"+strconv.Itoa(len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM teams t`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT t.id, t.name, t.created_by, t.created_at, t.updated_at FROM teams t` + clause +
		` ORDER BY t.created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += " LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var teams []*Team
	for rows.Next() {
		team := &Team{}
		if err := rows.Scan(&team.ID, &team.Name, &team.CreatedBy, &team.CreatedAt, &team.UpdatedAt); err != nil {
			return nil, 0, err
		}
		teams = append(teams, team)
	}
	return teams, total, rows.Err()
}

func (r *pgTeamRepository) Rename(ctx context.Context, id, name string) (*Team, error) {
	team := &Team{}
	err := r.pool.QueryRow(ctx, `
		UPDATE teams SET name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, created_by, created_at, updated_at
	`, id, name).Scan(&team.ID, &team.Name, &team.CreatedBy, &team.CreatedAt, &team.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, translateError(err)
	}
	return team, nil
}

// Delete removes the team; memberships go with it and members become teamless.
func (r *pgTeamRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ============================================
// Member operations
// ============================================

func (r *pgTeamRepository) AddMember(ctx context.Context, teamID, userID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO team_members (team_id, user_id)
		VALUES ($1, $2)
	`, teamID, userID)
	return translateError(err)
}

func (r *pgTeamRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`, teamID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgTeamRepository) TransferMember(ctx context.Context, fromTeamID, toTeamID, userID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`, fromTeamID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO team_members (team_id, user_id)
		VALUES ($1, $2)
	`, toTeamID, userID); err != nil {
		return translateError(err)
	}

	return tx.Commit(ctx)
}

func (r *pgTeamRepository) FindMembers(ctx context.Context, teamID string) ([]*TeamMember, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.team_id, m.user_id, m.joined_at,
		       u.id, u.name, u.email, u.role, u.admin_access, u.created_at, u.updated_at
		FROM team_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.team_id = $1
		ORDER BY m.joined_at
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*TeamMember
	for rows.Next() {
		m := &TeamMember{User: &User{}}
		if err := rows.Scan(
			&m.TeamID, &m.UserID, &m.JoinedAt,
			&m.User.ID, &m.User.Name, &m.User.Email, &m.User.Role,
			&m.User.AdminAccess, &m.User.CreatedAt, &m.User.UpdatedAt,
		); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *pgTeamRepository) FindTeamIDByUser(ctx context.Context, userID string) (string, error) {
	var teamID string
	err := r.pool.QueryRow(ctx, `SELECT team_id FROM team_members WHERE user_id = $1`, userID).Scan(&teamID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return teamID, err
}

func (r *pgTeamRepository) IsMember(ctx context.Context, teamID, userID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM team_members WHERE team_id = $1 AND user_id = $2)
	`, teamID, userID).Scan(&exists)
	return exists, err
}
