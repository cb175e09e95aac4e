package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// ============================================
// REPORT MODELS
// ============================================

// TaskQuery is the read-side task filter. Empty fields are ignored.
type TaskQuery struct {
	Status     string
	Priority   string
	TeamID     string
	AssignedTo string
	SortBy     string // "dueDate", "priority" or "" for newest first
}

// ReportScope limits aggregate queries. Empty fields mean no restriction.
type ReportScope struct {
	AssignedTo string
	TeamOwner  string
}

type StatusCount struct {
	Status string `db:"status"`
	Count  int    `db:"count"`
}

type RoleCount struct {
	Role  string `db:"role"`
	Count int    `db:"count"`
}

type TeamPerformanceRow struct {
	TeamID         string `json:"teamId" db:"team_id"`
	TeamName       string `json:"teamName" db:"team_name"`
	Members        int    `json:"members" db:"members"`
	Tasks          int    `json:"tasks" db:"tasks"`
	Completed      int    `json:"completed" db:"completed"`
	TrackedSeconds int64  `json:"trackedSeconds" db:"tracked_seconds"`
}

type MonthlyCount struct {
	Month     int `json:"month" db:"month"`
	Completed int `json:"completed" db:"completed"`
}

// ReportRepository serves read-only queries through sqlx.
type ReportRepository interface {
	FilterTasks(ctx context.Context, q TaskQuery) ([]*Task, error)
	CountTasksByStatus(ctx context.Context, scope ReportScope) ([]StatusCount, error)
	// TrackedSeconds sums closed segments plus the live part of open ones
	// for segments started at or after since. An empty userID means everyone.
	TrackedSeconds(ctx context.Context, userID string, since, now time.Time) (int64, error)
	TeamPerformance(ctx context.Context, teamOwner string, now time.Time) ([]TeamPerformanceRow, error)
	MonthlyCompleted(ctx context.Context, teamOwner string, from, to time.Time) ([]MonthlyCount, error)
	CountUsersByRole(ctx context.Context) ([]RoleCount, error)
	CountTeams(ctx context.Context) (int, error)
}

type sqlxReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) ReportRepository {
	return &sqlxReportRepository{db: db}
}

// liveSeconds is the elapsed time of a segment, counting open ones up to now.
const liveSeconds = `CASE WHEN l.end_time IS NULL
	THEN GREATEST(FLOOR(EXTRACT(EPOCH FROM (?::TIMESTAMPTZ - l.start_time))), 0)
	ELSE l.duration_seconds END`

func (r *sqlxReportRepository) FilterTasks(ctx context.Context, q TaskQuery) ([]*Task, error) {
	var (
		where []string
		args  []interface{}
	)
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, q.Status)
	}
	if q.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, q.Priority)
	}
	if q.TeamID != "" {
		where = append(where, "team_id = ?")
		args = append(args, q.TeamID)
	}
	if q.AssignedTo != "" {
		where = append(where, "assigned_to = ?")
		args = append(args, q.AssignedTo)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	switch q.SortBy {
	case "dueDate":
		query += " ORDER BY due_date ASC NULLS LAST, created_at DESC"
	case "priority":
		// Severity order, not alphabetical.
		query += " ORDER BY CASE priority WHEN 'High' THEN 0 WHEN 'Medium' THEN 1 WHEN 'Low' THEN 2 ELSE 3 END, created_at DESC"
	default:
		query += " ORDER BY created_at DESC"
	}

	var tasks []*Task
	if err := r.db.SelectContext(ctx, &tasks, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *sqlxReportRepository) CountTasksByStatus(ctx context.Context, scope ReportScope) ([]StatusCount, error) {
	query := `SELECT k.status, COUNT(*) AS count FROM tasks k`
	var (
		where []string
		args  []interface{}
	)
	if scope.TeamOwner != "" {
		query += ` JOIN teams t ON t.id = k.team_id`
		where = append(where, "t.created_by = ?")
		args = append(args, scope.TeamOwner)
	}
	if scope.AssignedTo != "" {
		where = append(where, "k.assigned_to = ?")
		args = append(args, scope.AssignedTo)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " GROUP BY k.status"

	var counts []StatusCount
	if err := r.db.SelectContext(ctx, &counts, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *sqlxReportRepository) TrackedSeconds(ctx context.Context, userID string, since, now time.Time) (int64, error) {
	query := `SELECT COALESCE(SUM(` + liveSeconds + `), 0)::BIGINT FROM time_logs l WHERE l.start_time >= ?`
	args := []interface{}{now, since}
	if userID != "" {
		query += " AND l.user_id = ?"
		args = append(args, userID)
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(query), args...); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *sqlxReportRepository) TeamPerformance(ctx context.Context, teamOwner string, now time.Time) ([]TeamPerformanceRow, error) {
	query := `
		SELECT t.id AS team_id, t.name AS team_name,
		       (SELECT COUNT(*) FROM team_members m WHERE m.team_id = t.id) AS members,
		       (SELECT COUNT(*) FROM tasks k WHERE k.team_id = t.id) AS tasks,
		       (SELECT COUNT(*) FROM tasks k WHERE k.team_id = t.id AND k.status = 'Completed') AS completed,
		       COALESCE((
		           SELECT SUM(` + liveSeconds + `)
		           FROM time_logs l JOIN tasks k ON k.id = l.task_id
		           WHERE k.team_id = t.id
		       ), 0)::BIGINT AS tracked_seconds
		FROM teams t`
	args := []interface{}{now}
	if teamOwner != "" {
		query += " WHERE t.created_by = ?"
		args = append(args, teamOwner)
	}
	query += " ORDER BY t.name"

	var rows []TeamPerformanceRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *sqlxReportRepository) MonthlyCompleted(ctx context.Context, teamOwner string, from, to time.Time) ([]MonthlyCount, error) {
	query := `SELECT EXTRACT(MONTH FROM k.completed_at)::INT AS month, COUNT(*) AS completed FROM tasks k`
	args := []interface{}{}
	where := []string{"k.status = 'Completed'", "k.completed_at >= ?", "k.completed_at < ?"}
	if teamOwner != "" {
		query += " JOIN teams t ON t.id = k.team_id"
		where = append(where, "t.created_by = ?")
	}
	args = append(args, from, to)
	if teamOwner != "" {
		args = append(args, teamOwner)
	}
	query += " WHERE " + strings.Join(where, " AND ") + " GROUP BY 1 ORDER BY 1"

	var counts []MonthlyCount
	if err := r.db.SelectContext(ctx, &counts, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *sqlxReportRepository) CountUsersByRole(ctx context.Context) ([]RoleCount, error) {
	var counts []RoleCount
	err := r.db.SelectContext(ctx, &counts, `SELECT role, COUNT(*) AS count FROM users GROUP BY role`)
	return counts, err
}

func (r *sqlxReportRepository) CountTeams(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM teams`)
	return n, err
}
