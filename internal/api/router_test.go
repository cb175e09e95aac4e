package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/api/handlers"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/config"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/models"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/repository"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/service"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := models.RegisterValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// ============================================
// Stubs
// ============================================

type stubAuth struct {
	service.AuthService
	actors map[string]*service.Actor // token -> actor
}

func (s *stubAuth) ValidateToken(token string) (*service.Claims, error) {
	a, ok := s.actors[token]
	if !ok {
		return nil, service.ErrInvalidToken
	}
	return &service.Claims{Role: a.Role, RegisteredClaims: jwt.RegisteredClaims{Subject: a.ID}}, nil
}

func (s *stubAuth) ResolveActor(_ context.Context, userID string) (*service.Actor, error) {
	for _, a := range s.actors {
		if a.ID != userID {
			continue
		}
		if a.Role == types.RoleAdmin && !a.AdminAccess {
			return nil, service.ErrPendingApproval
		}
		return a, nil
	}
	return nil, service.ErrUnauthenticated
}

type stubTasks struct {
	service.TaskService
	startErr error
	created  *service.CreateTaskInput
}

func (s *stubTasks) Create(_ context.Context, _ *service.Actor, in service.CreateTaskInput) (*repository.Task, error) {
	s.created = &in
	return &repository.Task{ID: uuid.NewString(), Title: in.Title, Status: types.StatusTodo}, nil
}

func (s *stubTasks) MarkInProgress(_ context.Context, _ *service.Actor, id string) (*repository.Task, error) {
	if s.startErr != nil {
		return nil, s.startErr
	}
	return &repository.Task{ID: id, Status: types.StatusInProgress}, nil
}

type stubNotifications struct {
	service.NotificationService
}

func (stubNotifications) MarkAsRead(context.Context, *service.Actor, string) error { return nil }

func (stubNotifications) Count(context.Context, *service.Actor) (*service.NotificationCount, error) {
	return &service.NotificationCount{Total: 3, Unread: 1}, nil
}

type countCall struct {
	userID        string
	total, unread int
}

type recordingCounts struct {
	mu    sync.Mutex
	calls []countCall
}

func (r *recordingCounts) SendNotificationCount(userID string, total, unread int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, countCall{userID, total, unread})
}

// ============================================
// Harness
// ============================================

var (
	member  = &service.Actor{ID: uuid.NewString(), Name: "Mia Member", Role: types.RoleMember}
	admin   = &service.Actor{ID: uuid.NewString(), Name: "Ada Admin", Role: types.RoleAdmin, AdminAccess: true}
	pending = &service.Actor{ID: uuid.NewString(), Name: "Pat Pending", Role: types.RoleAdmin}
)

type routerFixture struct {
	engine *gin.Engine
	tasks  *stubTasks
	counts *recordingCounts
}

func newRouterFixture() *routerFixture {
	auth := &stubAuth{actors: map[string]*service.Actor{
		"member-token":  member,
		"admin-token":   admin,
		"pending-token": pending,
	}}
	tasks := &stubTasks{}
	counts := &recordingCounts{}

	services := &service.Services{
		Auth:         auth,
		Task:         tasks,
		Notification: stubNotifications{},
	}
	engine := NewRouter(RouterDeps{
		Config:   &config.Config{FrontendURL: "http://localhost:3000"},
		Handlers: handlers.NewHandlers(services, counts),
		Auth:     auth,
		Health:   func() gin.H { return gin.H{"cache": "disabled"} },
	})
	return &routerFixture{engine: engine, tasks: tasks, counts: counts}
}

func (f *routerFixture) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return body
}

// ============================================
// Tests
// ============================================

func TestHealth(t *testing.T) {
	f := newRouterFixture()
	w := f.do(http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["status"] != "healthy" || body["cache"] != "disabled" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestAuthentication(t *testing.T) {
	f := newRouterFixture()

	tests := []struct {
		name   string
		token  string
		status int
		code   string
	}{
		{"missing token", "", http.StatusUnauthorized, "Unauthenticated"},
		{"unknown token", "forged", http.StatusUnauthorized, "InvalidToken"},
		{"pending admin", "pending-token", http.StatusForbidden, "PendingApproval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodGet, "/api/auth/me", tt.token, nil)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if got := decodeError(t, w).Code; got != tt.code {
				t.Errorf("code = %q, want %q", got, tt.code)
			}
		})
	}

	w := f.do(http.MethodGet, "/api/auth/me", "admin-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d", w.Code)
	}
	var got service.Actor
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.ID != admin.ID || got.Role != types.RoleAdmin {
		t.Errorf("me = %+v", got)
	}
}

func TestRoleGateRejectsMembers(t *testing.T) {
	f := newRouterFixture()
	w := f.do(http.MethodPost, "/api/tasks", "member-token", map[string]string{"title": "x"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if f.tasks.created != nil {
		t.Error("service must not be reached")
	}
}

func TestCreateTaskValidation(t *testing.T) {
	f := newRouterFixture()

	w := f.do(http.MethodPost, "/api/tasks", "admin-token", map[string]string{
		"title":      "   ",
		"teamId":     uuid.NewString(),
		"assignedTo": "not-a-uuid",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	body := decodeError(t, w)
	if body.Code != "InvalidInput" || body.Details["title"] == "" || body.Details["assignedTo"] == "" {
		t.Errorf("unexpected body %+v", body)
	}

	w = f.do(http.MethodPost, "/api/tasks", "admin-token", map[string]string{
		"title":      "Ship it",
		"teamId":     uuid.NewString(),
		"assignedTo": member.ID,
		"dueDate":    "someday",
	})
	if w.Code != http.StatusBadRequest || decodeError(t, w).Code != "InvalidDueDate" {
		t.Fatalf("bad due date: %d %s", w.Code, w.Body.String())
	}

	w = f.do(http.MethodPost, "/api/tasks", "admin-token", map[string]string{
		"title":      "Ship it",
		"teamId":     uuid.NewString(),
		"assignedTo": member.ID,
		"dueDate":    "2030-01-31",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if f.tasks.created == nil || f.tasks.created.DueDate == nil || f.tasks.created.DueDate.Day() != 31 {
		t.Errorf("service input = %+v", f.tasks.created)
	}
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"conflict", service.ErrInvalidTransition, http.StatusConflict, "InvalidTransition"},
		{"forbidden", service.Forbidden("Only the assignee can perform this action"), http.StatusForbidden, "Forbidden"},
		{"not found", service.NotFound("Task not found"), http.StatusNotFound, "NotFound"},
		{"internal", errors.New("pq: connection refused"), http.StatusInternalServerError, "Internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture()
			f.tasks.startErr = tt.err

			w := f.do(http.MethodPatch, "/api/tasks/"+uuid.NewString()+"/start", "member-token", nil)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			body := decodeError(t, w)
			if body.Code != tt.code {
				t.Errorf("code = %q, want %q", body.Code, tt.code)
			}
			if tt.status == http.StatusInternalServerError && body.Error != "Internal server error" {
				t.Errorf("internal details leaked: %q", body.Error)
			}
		})
	}
}

func TestMalformedPathID(t *testing.T) {
	f := newRouterFixture()
	w := f.do(http.MethodPatch, "/api/tasks/42/start", "member-token", nil)
	if w.Code != http.StatusBadRequest || decodeError(t, w).Code != "InvalidID" {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}

func TestMarkReadPublishesCount(t *testing.T) {
	f := newRouterFixture()
	w := f.do(http.MethodPatch, "/api/notifications/"+uuid.NewString()+"/read", "member-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	f.counts.mu.Lock()
	defer f.counts.mu.Unlock()
	if len(f.counts.calls) != 1 {
		t.Fatalf("count pushes = %d, want 1", len(f.counts.calls))
	}
	if got := f.counts.calls[0]; got != (countCall{member.ID, 3, 1}) {
		t.Errorf("push = %+v", got)
	}
}

func TestCORSConfig(t *testing.T) {
	cfg := corsConfig("http://a.example, http://b.example")
	if len(cfg.AllowOrigins) != 2 || cfg.AllowOrigins[1] != "http://b.example" {
		t.Errorf("origins = %v", cfg.AllowOrigins)
	}

	wildcard := corsConfig("*")
	if wildcard.AllowOriginFunc == nil || !wildcard.AllowOriginFunc("http://anything") {
		t.Error("wildcard should allow any origin")
	}
}
