package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/config"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/notification"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/repository"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/types"
	"golang.org/x/crypto/bcrypt"
)

// store is an in-memory database that reproduces the constraints the
// Postgres schema enforces: unique emails and team names, one team per user,
// one open timer per user, and conditional status updates.
type store struct {
	mu sync.Mutex
	id int

	users         map[string]*repository.User
	refreshTokens map[string]*repository.RefreshToken
	teams         map[string]*repository.Team
	members       map[string]string // user id -> team id
	tasks         map[string]*repository.Task
	events        []*repository.TaskEvent
	logs          []*repository.TimeLog
	notifications []*repository.Notification
}

func newStore() *store {
	return &store{
		users:         map[string]*repository.User{},
		refreshTokens: map[string]*repository.RefreshToken{},
		teams:         map[string]*repository.Team{},
		members:       map[string]string{},
		tasks:         map[string]*repository.Task{},
	}
}

func (s *store) nextID(prefix string) string {
	s.id++
	return prefix + "-" + strconv.Itoa(s.id)
}

func dup(constraint string) error {
	return &repository.DuplicateError{Constraint: constraint}
}

func copyTask(t *repository.Task) *repository.Task {
	c := *t
	return &c
}

// ============================================
// Users
// ============================================

type fakeUsers struct{ *store }

func (r fakeUsers) Create(ctx context.Context, u *repository.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return dup(repository.ConstraintUserEmail)
		}
	}
	u.ID = r.nextID("user")
	u.CreatedAt = time.Now()
	c := *u
	r.users[u.ID] = &c
	return nil
}

func (r fakeUsers) FindByID(ctx context.Context, id string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (r fakeUsers) FindByEmail(ctx context.Context, email string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == strings.ToLower(email) {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r fakeUsers) FindByRoles(ctx context.Context, roles []string) ([]*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*repository.User
	for _, u := range r.users {
		for _, role := range roles {
			if u.Role == role {
				c := *u
				out = append(out, &c)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeUsers) EnsureSuperAdmin(ctx context.Context, u *repository.User) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			existing.Role = types.RoleSuperAdmin
			existing.AdminAccess = true
			u.ID = existing.ID
			return false, nil
		}
	}
	u.ID = r.nextID("user")
	c := *u
	r.users[u.ID] = &c
	return true, nil
}

func (r fakeUsers) ToggleAdminAccess(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.Role != types.RoleAdmin {
		return false, repository.ErrNotFound
	}
	u.AdminAccess = !u.AdminAccess
	return u.AdminAccess, nil
}

func (r fakeUsers) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.members, id)
	delete(r.users, id)
	return nil
}

func (r fakeUsers) SaveRefreshToken(ctx context.Context, t *repository.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *t
	r.refreshTokens[t.Token] = &c
	return nil
}

func (r fakeUsers) ConsumeRefreshToken(ctx context.Context, token string) (*repository.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.refreshTokens[token]
	if !ok {
		return nil, nil
	}
	delete(r.refreshTokens, token)
	return t, nil
}

func (r fakeUsers) DeleteRefreshToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.refreshTokens, token)
	return nil
}

func (r fakeUsers) DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, t := range r.refreshTokens {
		if t.ExpiresAt.Before(before) {
			delete(r.refreshTokens, k)
			n++
		}
	}
	return n, nil
}

// ============================================
// Teams
// ============================================

type fakeTeams struct{ *store }

func (r fakeTeams) Create(ctx context.Context, team *repository.Team, addCreator bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.teams {
		if t.Name == team.Name {
			return dup(repository.ConstraintTeamName)
		}
	}
	team.ID = r.nextID("team")
	c := *team
	r.teams[team.ID] = &c
	if addCreator && team.CreatedBy != nil {
		if _, teamed := r.members[*team.CreatedBy]; !teamed {
			r.members[*team.CreatedBy] = team.ID
		}
	}
	return nil
}

func (r fakeTeams) FindByID(ctx context.Context, id string) (*repository.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.teams[id]; ok {
		c := *t
		return &c, nil
	}
	return nil, nil
}

func (r fakeTeams) List(ctx context.Context, f repository.TeamFilter) ([]*repository.Team, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*repository.Team
	for _, t := range r.teams {
		if f.CreatedBy != "" && (t.CreatedBy == nil || *t.CreatedBy != f.CreatedBy) {
			continue
		}
		if f.MemberID != "" && r.members[f.MemberID] != t.ID {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(f.Search)) {
			continue
		}
		c := *t
		matched = append(matched, &c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	total := len(matched)
	if f.Offset >= total {
		return nil, total, nil
	}
	end := total
	if f.Limit > 0 && f.Offset+f.Limit < end {
		end = f.Offset + f.Limit
	}
	return matched[f.Offset:end], total, nil
}

func (r fakeTeams) Rename(ctx context.Context, id, name string) (*repository.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for _, other := range r.teams {
		if other.ID != id && other.Name == name {
			return nil, dup(repository.ConstraintTeamName)
		}
	}
	t.Name = name
	c := *t
	return &c, nil
}

func (r fakeTeams) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.teams, id)
	for user, team := range r.members {
		if team == id {
			delete(r.members, user)
		}
	}
	for _, task := range r.tasks {
		if task.TeamID != nil && *task.TeamID == id {
			task.TeamID = nil
		}
	}
	return nil
}

func (r fakeTeams) AddMember(ctx context.Context, teamID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.members[userID]; ok {
		if current == teamID {
			return dup(repository.ConstraintTeamMemberPK)
		}
		return dup(repository.ConstraintTeamMemberUser)
	}
	r.members[userID] = teamID
	return nil
}

func (r fakeTeams) RemoveMember(ctx context.Context, teamID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.members[userID] != teamID {
		return repository.ErrNotFound
	}
	delete(r.members, userID)
	return nil
}

func (r fakeTeams) TransferMember(ctx context.Context, from, to, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.members[userID] != from {
		return repository.ErrNotFound
	}
	r.members[userID] = to
	return nil
}

func (r fakeTeams) FindMembers(ctx context.Context, teamID string) ([]*repository.TeamMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*repository.TeamMember
	for userID, team := range r.members {
		if team != teamID {
			continue
		}
		m := &repository.TeamMember{TeamID: teamID, UserID: userID}
		if u, ok := r.users[userID]; ok {
			c := *u
			m.User = &c
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r fakeTeams) FindTeamIDByUser(ctx context.Context, userID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.members[userID], nil
}

func (r fakeTeams) IsMember(ctx context.Context, teamID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.members[userID] == teamID, nil
}

// ============================================
// Tasks and events
// ============================================

type fakeTasks struct{ *store }

func (r fakeTasks) addEvent(e *repository.TaskEvent) {
	e.ID = r.nextID("event")
	e.CreatedAt = time.Now()
	r.events = append(r.events, e)
}

func (r fakeTasks) insert(t *repository.Task) error {
	if t.ReassignedFrom != nil {
		for _, other := range r.tasks {
			if other.ReassignedFrom != nil && *other.ReassignedFrom == *t.ReassignedFrom {
				return dup(repository.ConstraintReassignedFrom)
			}
		}
	}
	t.ID = r.nextID("task")
	r.tasks[t.ID] = copyTask(t)
	return nil
}

func (r fakeTasks) Create(ctx context.Context, t *repository.Task, e *repository.TaskEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.insert(t); err != nil {
		return err
	}
	if e != nil {
		e.TaskID = t.ID
		r.addEvent(e)
	}
	return nil
}

func (r fakeTasks) FindByID(ctx context.Context, id string) (*repository.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tasks[id]; ok {
		return copyTask(t), nil
	}
	return nil, nil
}

func (r fakeTasks) FindByTeam(ctx context.Context, teamID string) ([]*repository.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*repository.Task
	for _, t := range r.tasks {
		if t.TeamID != nil && *t.TeamID == teamID {
			out = append(out, copyTask(t))
		}
	}
	return out, nil
}

func (r fakeTasks) Transition(ctx context.Context, tr repository.Transition) (*repository.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[tr.TaskID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if t.Status != tr.From {
		return nil, repository.ErrStatusChanged
	}
	t.Status = tr.To
	if tr.To == types.StatusCompleted {
		now := time.Now()
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
	if tr.Event != nil {
		from := tr.From
		tr.Event.TaskID = t.ID
		tr.Event.FromStatus = &from
		tr.Event.ToStatus = tr.To
		r.addEvent(tr.Event)
	}
	return copyTask(t), nil
}

func (r fakeTasks) Supersede(ctx context.Context, sourceID string, replacement *repository.Task, actorID, note string) (*repository.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	source, ok := r.tasks[sourceID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if source.Status != types.StatusTodo {
		return nil, repository.ErrStatusChanged
	}
	replacement.ReassignedFrom = &sourceID
	if err := r.insert(replacement); err != nil {
		return nil, err
	}
	from := source.Status
	source.Status = types.StatusRejected
	r.addEvent(&repository.TaskEvent{TaskID: sourceID, ActorID: &actorID, Kind: types.EventSuperseded, FromStatus: &from, ToStatus: types.StatusRejected, Note: note})
	r.addEvent(&repository.TaskEvent{TaskID: replacement.ID, ActorID: &actorID, Kind: types.EventCreated, ToStatus: types.StatusTodo})
	return replacement, nil
}

type fakeEvents struct{ *store }

func (r fakeEvents) FindByTask(ctx context.Context, taskID string) ([]*repository.TaskEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*repository.TaskEvent
	for _, e := range r.events {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r fakeEvents) HasKind(ctx context.Context, taskID, kind string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.TaskID == taskID && e.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

// ============================================
// Time logs
// ============================================

type fakeLogs struct{ *store }

func (r fakeLogs) Open(ctx context.Context, l *repository.TimeLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.logs {
		if existing.UserID == l.UserID && existing.IsOpen() {
			return dup(repository.ConstraintOneOpenTimer)
		}
	}
	l.ID = r.nextID("log")
	c := *l
	r.logs = append(r.logs, &c)
	return nil
}

func (r fakeLogs) close(l *repository.TimeLog, end time.Time, reason *string) *repository.TimeLog {
	l.EndTime = &end
	if d := int(end.Sub(l.StartTime) / time.Second); d > 0 {
		l.DurationSeconds = d
	}
	l.PauseReason = reason
	c := *l
	return &c
}

func (r fakeLogs) CloseOpenForTask(ctx context.Context, userID, taskID string, end time.Time, reason *string) (*repository.TimeLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.logs {
		if l.UserID == userID && l.TaskID == taskID && l.IsOpen() {
			return r.close(l, end, reason), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r fakeLogs) CloseOpen(ctx context.Context, userID string, end time.Time) (*repository.TimeLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.logs {
		if l.UserID == userID && l.IsOpen() {
			return r.close(l, end, nil), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r fakeLogs) FindOpen(ctx context.Context, userID string) (*repository.TimeLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.logs {
		if l.UserID == userID && l.IsOpen() {
			c := *l
			return &c, nil
		}
	}
	return nil, nil
}

func (r fakeLogs) FindLatest(ctx context.Context, userID string) (*repository.TimeLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *repository.TimeLog
	for _, l := range r.logs {
		if l.UserID == userID && (latest == nil || !l.StartTime.Before(latest.StartTime)) {
			latest = l
		}
	}
	if latest == nil {
		return nil, nil
	}
	c := *latest
	return &c, nil
}

func (r fakeLogs) FindByTask(ctx context.Context, taskID string) ([]*repository.TimeLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*repository.TimeLog
	for _, l := range r.logs {
		if l.TaskID == taskID {
			c := *l
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r fakeLogs) FindOpenStartedBefore(ctx context.Context, before time.Time) ([]*repository.TimeLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*repository.TimeLog
	for _, l := range r.logs {
		if l.IsOpen() && l.StartTime.Before(before) {
			c := *l
			out = append(out, &c)
		}
	}
	return out, nil
}

// ============================================
// Notifications
// ============================================

type fakeNotifications struct{ *store }

func (r fakeNotifications) Create(ctx context.Context, n *repository.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = r.nextID("notification")
	n.CreatedAt = time.Now()
	r.notifications = append(r.notifications, n)
	return nil
}

func (r fakeNotifications) FindByUserID(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*repository.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*repository.Notification
	for i := len(r.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		n := r.notifications[i]
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r fakeNotifications) CountByUserID(ctx context.Context, userID string) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total, unread int
	for _, n := range r.notifications {
		if n.UserID == userID {
			total++
			if !n.IsRead {
				unread++
			}
		}
	}
	return total, unread, nil
}

func (r fakeNotifications) MarkAsRead(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r fakeNotifications) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, item := range r.notifications {
		if item.UserID == userID && !item.IsRead {
			item.IsRead = true
			n++
		}
	}
	return n, nil
}

func (r fakeNotifications) DeleteReadOlderThan(ctx context.Context, t time.Time) (int64, error) {
	return 0, nil
}

// ============================================
// Reports
// ============================================

type fakeReports struct{ *store }

func (r fakeReports) FilterTasks(ctx context.Context, q repository.TaskQuery) ([]*repository.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*repository.Task
	for _, t := range r.tasks {
		if q.Status != "" && t.Status != q.Status {
			continue
		}
		if q.Priority != "" && t.Priority != q.Priority {
			continue
		}
		if q.TeamID != "" && (t.TeamID == nil || *t.TeamID != q.TeamID) {
			continue
		}
		if q.AssignedTo != "" && (t.AssignedTo == nil || *t.AssignedTo != q.AssignedTo) {
			continue
		}
		out = append(out, copyTask(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if q.SortBy == types.SortByPriority {
		sort.SliceStable(out, func(i, j int) bool {
			return types.PriorityRank(out[i].Priority) < types.PriorityRank(out[j].Priority)
		})
	}
	return out, nil
}

func (r fakeReports) CountTasksByStatus(ctx context.Context, scope repository.ReportScope) ([]repository.StatusCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[string]int{}
	for _, t := range r.tasks {
		if scope.AssignedTo != "" && (t.AssignedTo == nil || *t.AssignedTo != scope.AssignedTo) {
			continue
		}
		counts[t.Status]++
	}
	var out []repository.StatusCount
	for status, n := range counts {
		out = append(out, repository.StatusCount{Status: status, Count: n})
	}
	return out, nil
}

func (r fakeReports) TrackedSeconds(ctx context.Context, userID string, since, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var logs []*repository.TimeLog
	for _, l := range r.logs {
		if (userID == "" || l.UserID == userID) && !l.StartTime.Before(since) {
			logs = append(logs, l)
		}
	}
	return SumSegments(logs, now), nil
}

func (r fakeReports) TeamPerformance(ctx context.Context, owner string, now time.Time) ([]repository.TeamPerformanceRow, error) {
	return nil, nil
}

func (r fakeReports) MonthlyCompleted(ctx context.Context, owner string, from, to time.Time) ([]repository.MonthlyCount, error) {
	return nil, nil
}

func (r fakeReports) CountUsersByRole(ctx context.Context) ([]repository.RoleCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[string]int{}
	for _, u := range r.users {
		counts[u.Role]++
	}
	var out []repository.RoleCount
	for role, n := range counts {
		out = append(out, repository.RoleCount{Role: role, Count: n})
	}
	return out, nil
}

func (r fakeReports) CountTeams(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.teams), nil
}

// ============================================
// Harness
// ============================================

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notification.Message
}

func (n *recordingNotifier) Notify(ctx context.Context, msg notification.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

func (n *recordingNotifier) sent() []notification.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification.Message(nil), n.messages...)
}

type mapActorCache struct {
	mu     sync.Mutex
	actors map[string]*Actor
}

func (c *mapActorCache) Get(ctx context.Context, id string) (*Actor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.actors[id]
	return a, ok
}

func (c *mapActorCache) Set(ctx context.Context, a *Actor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actors[a.ID] = a
}

func (c *mapActorCache) Invalidate(ctx context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.actors, id)
}

type harness struct {
	t        *testing.T
	store    *store
	notifier *recordingNotifier
	cache    *mapActorCache
	clock    time.Time
	services *Services
	cfg      *config.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		store:    newStore(),
		notifier: &recordingNotifier{},
		cache:    &mapActorCache{actors: map[string]*Actor{}},
		clock:    time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC),
		cfg: &config.Config{
			JWTSecret:     "test-secret",
			JWTExpiry:     24,
			RefreshExpiry: 7,
		},
	}
	h.services = NewServices(&ServiceDeps{
		Config: h.cfg,
		Repos: &repository.Repositories{
			UserRepo:         fakeUsers{h.store},
			TeamRepo:         fakeTeams{h.store},
			TaskRepo:         fakeTasks{h.store},
			TaskEventRepo:    fakeEvents{h.store},
			TimeLogRepo:      fakeLogs{h.store},
			NotificationRepo: fakeNotifications{h.store},
			ReportRepo:       fakeReports{h.store},
		},
		Notifier:   h.notifier,
		ActorCache: h.cache,
		Clock:      func() time.Time { return h.clock },
	})
	return h
}

func (h *harness) advance(d time.Duration) {
	h.clock = h.clock.Add(d)
}

// user inserts a user directly and returns it as an actor.
func (h *harness) user(name, role string) *Actor {
	h.t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		h.t.Fatal(err)
	}
	u := &repository.User{
		Name:        name,
		Email:       strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Password:    string(hashed),
		Role:        role,
		AdminAccess: types.DefaultAdminAccess(role),
	}
	if err := (fakeUsers{h.store}).Create(context.Background(), u); err != nil {
		h.t.Fatal(err)
	}
	return actorFromUser(u)
}

func (h *harness) approve(admin *Actor) *Actor {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	h.store.users[admin.ID].AdminAccess = true
	approved := *admin
	approved.AdminAccess = true
	return &approved
}

// team creates a team owned by owner with the given members.
func (h *harness) team(owner *Actor, name string, members ...*Actor) *repository.Team {
	h.t.Helper()
	ctx := context.Background()
	team, err := h.services.Team.Create(ctx, owner, name)
	if err != nil {
		h.t.Fatalf("create team: %v", err)
	}
	for _, m := range members {
		if _, err := h.services.Team.AddMember(ctx, owner, team.ID, m.ID); err != nil {
			h.t.Fatalf("add member: %v", err)
		}
	}
	return team
}

func (h *harness) task(creator *Actor, team *repository.Team, assignee *Actor) *repository.Task {
	h.t.Helper()
	task, err := h.services.Task.Create(context.Background(), creator, CreateTaskInput{
		Title:      "Write report",
		TeamID:     team.ID,
		AssignedTo: assignee.ID,
	})
	if err != nil {
		h.t.Fatalf("create task: %v", err)
	}
	return task
}

func (h *harness) eventsFor(taskID string) []*repository.TaskEvent {
	events, _ := (fakeEvents{h.store}).FindByTask(context.Background(), taskID)
	return events
}

func expectError(t *testing.T, err error, want *Error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v, got nil", want)
	}
	got, ok := AsError(err)
	if !ok {
		t.Fatalf("expected %v, got non-business error %v", want, err)
	}
	if got.Kind != want.Kind || got.Code != want.Code {
		t.Fatalf("expected %s(%s), got %s(%s): %s", want.Kind, want.Code, got.Kind, got.Code, got.Message)
	}
}
