package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/repository"
)

// ============================================
// Auth DTOs
// ============================================

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,personname"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=Admin Member"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresAt    time.Time    `json:"expiresAt"`
}

type RegisterResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message"`
}

// ============================================
// User DTOs
// ============================================

type UserResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	AdminAccess bool      `json:"adminAccess"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewUserResponse(u *repository.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		AdminAccess: u.AdminAccess,
		CreatedAt:   u.CreatedAt,
	}
}

func NewUserResponses(users []*repository.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserResponse(u))
	}
	return out
}

// ============================================
// Team DTOs
// ============================================

type CreateTeamRequest struct {
	Name string `json:"name" binding:"required,notblank"`
}

type UpdateTeamRequest struct {
	Name string `json:"name" binding:"required,notblank"`
}

type AddMemberRequest struct {
	UserID string `json:"userId" binding:"required,uuid"`
}

type TransferMemberRequest struct {
	FromTeamID string `json:"fromTeamId" binding:"required,uuid"`
	ToTeamID   string `json:"toTeamId" binding:"required,uuid"`
	UserID     string `json:"userId" binding:"required,uuid"`
}

type TeamListQuery struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1"`
	Search string `form:"search"`
}

// ============================================
// Task DTOs
// ============================================

type CreateTaskRequest struct {
	Title       string  `json:"title" binding:"required,notblank"`
	Description string  `json:"description"`
	TeamID      string  `json:"teamId" binding:"required,uuid"`
	AssignedTo  string  `json:"assignedTo" binding:"required,uuid"`
	Priority    string  `json:"priority" binding:"omitempty,oneof=Low Medium High"`
	DueDate     *string `json:"dueDate"`
}

type RejectTaskRequest struct {
	Reason string `json:"reason"`
}

type SupersedeTaskRequest struct {
	AssignedTo  string  `json:"assignedTo" binding:"omitempty,uuid"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Priority    string  `json:"priority" binding:"omitempty,oneof=Low Medium High"`
	DueDate     *string `json:"dueDate"`
	Note        string  `json:"note"`
}

type TaskFilterQuery struct {
	Status     string `form:"status"`
	Priority   string `form:"priority"`
	TeamID     string `form:"teamId" binding:"omitempty,uuid"`
	AssignedTo string `form:"assignedTo" binding:"omitempty,uuid"`
	SortBy     string `form:"sortBy"`
}

// ParseDueDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDueDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, fmt.Errorf("invalid due date %q", v)
	}
	return &t, nil
}

// ============================================
// Time Log DTOs
// ============================================

type TimerRequest struct {
	TaskID string `json:"taskId" binding:"required,uuid"`
}

type PauseTimerRequest struct {
	TaskID string `json:"taskId" binding:"required,uuid"`
	Reason string `json:"reason" binding:"required,notblank"`
}

// ============================================
// Common Response Types
// ============================================

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
