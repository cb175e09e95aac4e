package service

import (
	"context"
	"time"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/policy"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/repository"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/types"
	"github.com/shopspring/decimal"
)

// ============================================
// Dashboard Service
// ============================================

type MemberDashboard struct {
	Assigned       int             `json:"assigned"`
	Todo           int             `json:"todo"`
	InProgress     int             `json:"inProgress"`
	Pending        int             `json:"pending"`
	Completed      int             `json:"completed"`
	CompletionRate decimal.Decimal `json:"completionRate"`
	HoursToday     decimal.Decimal `json:"hoursToday"`
	HoursWeek      decimal.Decimal `json:"hoursWeek"`
	HoursMonth     decimal.Decimal `json:"hoursMonth"`
}

type TeamStats struct {
	TeamID         string          `json:"teamId"`
	TeamName       string          `json:"teamName"`
	Members        int             `json:"members"`
	Tasks          int             `json:"tasks"`
	Completed      int             `json:"completed"`
	CompletionRate decimal.Decimal `json:"completionRate"`
	Hours          decimal.Decimal `json:"hours"`
	Formatted      string          `json:"formatted"`
}

type AdminDashboard struct {
	Teams []TeamStats `json:"teams"`
	// MonthlyCompleted holds completed task counts for January to December
	// of the current year.
	MonthlyCompleted [12]int `json:"monthlyCompleted"`
}

type SystemDashboard struct {
	UsersByRole   map[string]int  `json:"usersByRole"`
	Teams         int             `json:"teams"`
	TasksByStatus map[string]int  `json:"tasksByStatus"`
	TotalHours    decimal.Decimal `json:"totalHours"`
}

type DashboardService interface {
	Member(ctx context.Context, actor *Actor) (*MemberDashboard, error)
	Admin(ctx context.Context, actor *Actor) (*AdminDashboard, error)
	System(ctx context.Context, actor *Actor) (*SystemDashboard, error)
}

type dashboardService struct {
	reportRepo repository.ReportRepository
	now        func() time.Time
}

func NewDashboardService(reportRepo repository.ReportRepository, now func() time.Time) DashboardService {
	return &dashboardService{reportRepo: reportRepo, now: now}
}

// periodStarts returns the UTC start of the day, ISO week and month of t.
func periodStarts(t time.Time) (day, week, month time.Time) {
	t = t.UTC()
	day = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	week = day.AddDate(0, 0, -offset)
	month = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return day, week, month
}

func statusMap(counts []repository.StatusCount) map[string]int {
	m := make(map[string]int, len(types.ValidTaskStatuses))
	for _, s := range types.ValidTaskStatuses {
		m[s] = 0
	}
	for _, c := range counts {
		m[c.Status] = c.Count
	}
	return m
}

func (s *dashboardService) Member(ctx context.Context, actor *Actor) (*MemberDashboard, error) {
	if err := authorize(actor, policy.DashboardMember); err != nil {
		return nil, err
	}

	counts, err := s.reportRepo.CountTasksByStatus(ctx, repository.ReportScope{AssignedTo: actor.ID})
	if err != nil {
		return nil, err
	}
	byStatus := statusMap(counts)
	assigned := 0
	for _, n := range byStatus {
		assigned += n
	}

	now := s.now()
	day, week, month := periodStarts(now)
	hours := make([]decimal.Decimal, 0, 3)
	for _, since := range []time.Time{day, week, month} {
		secs, err := s.reportRepo.TrackedSeconds(ctx, actor.ID, since, now)
		if err != nil {
			return nil, err
		}
		hours = append(hours, HoursFromSeconds(secs))
	}

	completed := byStatus[types.StatusCompleted]
	return &MemberDashboard{
		Assigned:       assigned,
		Todo:           byStatus[types.StatusTodo],
		InProgress:     byStatus[types.StatusInProgress],
		Pending:        byStatus[types.StatusPendingApproval],
		Completed:      completed,
		CompletionRate: percent(completed, assigned),
		HoursToday:     hours[0],
		HoursWeek:      hours[1],
		HoursMonth:     hours[2],
	}, nil
}

func (s *dashboardService) Admin(ctx context.Context, actor *Actor) (*AdminDashboard, error) {
	if err := authorize(actor, policy.DashboardAdmin); err != nil {
		return nil, err
	}

	owner := actor.ID
	if actor.IsSuperAdmin() {
		owner = ""
	}
	now := s.now()

	rows, err := s.reportRepo.TeamPerformance(ctx, owner, now)
	if err != nil {
		return nil, err
	}
	dash := &AdminDashboard{Teams: make([]TeamStats, 0, len(rows))}
	for _, r := range rows {
		dash.Teams = append(dash.Teams, TeamStats{
			TeamID:         r.TeamID,
			TeamName:       r.TeamName,
			Members:        r.Members,
			Tasks:          r.Tasks,
			Completed:      r.Completed,
			CompletionRate: percent(r.Completed, r.Tasks),
			Hours:          HoursFromSeconds(r.TrackedSeconds),
			Formatted:      FormatDuration(r.TrackedSeconds),
		})
	}

	year := now.UTC().Year()
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	monthly, err := s.reportRepo.MonthlyCompleted(ctx, owner, from, from.AddDate(1, 0, 0))
	if err != nil {
		return nil, err
	}
	for _, m := range monthly {
		if m.Month >= 1 && m.Month <= 12 {
			dash.MonthlyCompleted[m.Month-1] = m.Completed
		}
	}
	return dash, nil
}

func (s *dashboardService) System(ctx context.Context, actor *Actor) (*SystemDashboard, error) {
	if err := authorize(actor, policy.DashboardSystem); err != nil {
		return nil, err
	}

	roles, err := s.reportRepo.CountUsersByRole(ctx)
	if err != nil {
		return nil, err
	}
	byRole := make(map[string]int, len(types.ValidRoles))
	for _, r := range types.ValidRoles {
		byRole[r] = 0
	}
	for _, r := range roles {
		byRole[r.Role] = r.Count
	}

	teams, err := s.reportRepo.CountTeams(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.reportRepo.CountTasksByStatus(ctx, repository.ReportScope{})
	if err != nil {
		return nil, err
	}
	secs, err := s.reportRepo.TrackedSeconds(ctx, "", time.Time{}, s.now())
	if err != nil {
		return nil, err
	}

	return &SystemDashboard{
		UsersByRole:   byRole,
		Teams:         teams,
		TasksByStatus: statusMap(tasks),
		TotalHours:    HoursFromSeconds(secs),
	}, nil
}
