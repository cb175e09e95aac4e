// internal/repository/repository.go
package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// ============================================
// Models / Entities
// ============================================

type User struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Email       string    `json:"email" db:"email"`
	Password    string    `json:"-" db:"password"`
	Role        string    `json:"role" db:"role"`
	AdminAccess bool      `json:"adminAccess" db:"admin_access"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

type RefreshToken struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type Team struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedBy *string   `json:"createdBy" db:"created_by"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Members []*TeamMember `json:"members,omitempty" db:"-"`
}

type TeamMember struct {
	TeamID   string    `json:"teamId"`
	UserID   string    `json:"userId"`
	JoinedAt time.Time `json:"joinedAt"`
	User     *User     `json:"user,omitempty"`
}

type Task struct {
	ID             string     `json:"id" db:"id"`
	Title          string     `json:"title" db:"title"`
	Description    string     `json:"description" db:"description"`
	TeamID         *string    `json:"teamId" db:"team_id"`
	AssignedTo     *string    `json:"assignedTo" db:"assigned_to"`
	CreatedBy      *string    `json:"createdBy" db:"created_by"`
	Priority       string     `json:"priority" db:"priority"`
	Status         string     `json:"status" db:"status"`
	DueDate        *time.Time `json:"dueDate" db:"due_date"`
	ReassignedFrom *string    `json:"reassignedFrom" db:"reassigned_from"`
	CompletedAt    *time.Time `json:"completedAt" db:"completed_at"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`
}

type TaskEvent struct {
	ID         string    `json:"id" db:"id"`
	TaskID     string    `json:"taskId" db:"task_id"`
	ActorID    *string   `json:"actorId" db:"actor_id"`
	Kind       string    `json:"kind" db:"kind"`
	FromStatus *string   `json:"fromStatus" db:"from_status"`
	ToStatus   string    `json:"toStatus" db:"to_status"`
	Note       string    `json:"note" db:"note"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

type TimeLog struct {
	ID              string     `json:"id" db:"id"`
	TaskID          string     `json:"taskId" db:"task_id"`
	UserID          string     `json:"userId" db:"user_id"`
	StartTime       time.Time  `json:"startTime" db:"start_time"`
	EndTime         *time.Time `json:"endTime" db:"end_time"`
	DurationSeconds int        `json:"durationSeconds" db:"duration_seconds"`
	PauseReason     *string    `json:"pauseReason" db:"pause_reason"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
}

// IsOpen reports whether the segment has no end yet.
func (t *TimeLog) IsOpen() bool {
	return t.EndTime == nil
}

type Notification struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	Type      string    `json:"type" db:"type"`
	IsRead    bool      `json:"isRead" db:"is_read"`
	Link      *string   `json:"link" db:"link"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ============================================
// Errors
// ============================================

var (
	// ErrNotFound is returned by writes that matched no row. Lookups return
	// (nil, nil) instead.
	ErrNotFound = errors.New("record not found")

	// ErrStatusChanged is returned when a conditional status update lost the
	// race or the row was not in the expected status.
	ErrStatusChanged = errors.New("status changed")
)

// Unique constraint names from the migrations.
const (
	ConstraintUserEmail      = "users_email_key"
	ConstraintTeamName       = "teams_name_key"
	ConstraintTeamMemberUser = "team_members_user_id_key"
	ConstraintTeamMemberPK   = "team_members_pkey"
	ConstraintOneOpenTimer   = "time_logs_one_open_per_user"
	ConstraintReassignedFrom = "tasks_reassigned_from_key"
)

const pgUniqueViolation = "23505"

// DuplicateError wraps a unique violation with the constraint that fired.
type DuplicateError struct {
	Constraint string
	Err        error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate key violates %s", e.Constraint)
}

func (e *DuplicateError) Unwrap() error {
	return e.Err
}

// IsDuplicate reports whether err is a unique violation on one of the given
// constraints. With no constraints it matches any unique violation.
func IsDuplicate(err error, constraints ...string) bool {
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		return false
	}
	if len(constraints) == 0 {
		return true
	}
	for _, c := range constraints {
		if dup.Constraint == c {
			return true
		}
	}
	return false
}

// translateError converts driver errors the service layer cares about.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return &DuplicateError{Constraint: pgErr.ConstraintName, Err: err}
	}
	return err
}
