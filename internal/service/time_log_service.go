package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/policy"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/repository"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/types"
	"github.com/shopspring/decimal"
)

// ============================================
// Time Log Service
// ============================================

// Timer states reported by Status.
const (
	TimerIdle    = "idle"
	TimerRunning = "running"
	TimerPaused  = "paused"
)

type TimerStatus struct {
	State     string              `json:"state"`
	TaskID    *string             `json:"taskId"`
	StartTime *time.Time          `json:"startTime"`
	Log       *repository.TimeLog `json:"log"`
}

type TaskTotal struct {
	TaskID       string                `json:"taskId"`
	TotalSeconds int64                 `json:"totalSeconds"`
	Hours        decimal.Decimal       `json:"hours"`
	Formatted    string                `json:"formatted"`
	Logs         []*repository.TimeLog `json:"logs"`
}

type TimeLogService interface {
	Start(ctx context.Context, actor *Actor, taskID string) (*repository.TimeLog, error)
	Pause(ctx context.Context, actor *Actor, taskID, reason string) (*repository.TimeLog, error)
	Resume(ctx context.Context, actor *Actor, taskID string) (*repository.TimeLog, error)
	// Stop closes whatever segment the actor has open.
	Stop(ctx context.Context, actor *Actor) (*repository.TimeLog, error)
	Status(ctx context.Context, actor *Actor) (*TimerStatus, error)
	TaskTotal(ctx context.Context, actor *Actor, taskID string) (*TaskTotal, error)
}

type timeLogService struct {
	timeLogRepo repository.TimeLogRepository
	taskRepo    repository.TaskRepository
	now         func() time.Time
}

func NewTimeLogService(timeLogRepo repository.TimeLogRepository, taskRepo repository.TaskRepository, now func() time.Time) TimeLogService {
	return &timeLogService{timeLogRepo: timeLogRepo, taskRepo: taskRepo, now: now}
}

// trackableTask loads a task the actor may log time against.
func (s *timeLogService) trackableTask(ctx context.Context, actor *Actor, taskID string) (*repository.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, NotFound("Task not found")
	}
	if !isAssignee(task, actor) {
		return nil, Forbidden("You can only track time on tasks assigned to you")
	}
	if task.Status == types.StatusCompleted || task.Status == types.StatusRejected {
		return nil, Validation("TaskClosed", "Time cannot be tracked on a closed task")
	}
	return task, nil
}

// open inserts a segment. The one-open-timer index decides concurrent starts.
func (s *timeLogService) open(ctx context.Context, actor *Actor, taskID string) (*repository.TimeLog, error) {
	log := &repository.TimeLog{
		TaskID:    taskID,
		UserID:    actor.ID,
		StartTime: s.now(),
	}
	if err := s.timeLogRepo.Open(ctx, log); err != nil {
		if repository.IsDuplicate(err, repository.ConstraintOneOpenTimer) {
			return nil, ErrConflictingTimer
		}
		return nil, err
	}
	return log, nil
}

func (s *timeLogService) Start(ctx context.Context, actor *Actor, taskID string) (*repository.TimeLog, error) {
	if err := authorize(actor, policy.TimeLogStart); err != nil {
		return nil, err
	}
	if _, err := s.trackableTask(ctx, actor, taskID); err != nil {
		return nil, err
	}

	current, err := s.timeLogRepo.FindOpen(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return nil, ErrConflictingTimer
	}
	return s.open(ctx, actor, taskID)
}

func (s *timeLogService) Pause(ctx context.Context, actor *Actor, taskID, reason string) (*repository.TimeLog, error) {
	if err := authorize(actor, policy.TimeLogPause); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, Validation("ReasonRequired", "A pause reason is required")
	}

	log, err := s.timeLogRepo.CloseOpenForTask(ctx, actor.ID, taskID, s.now(), &reason)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NotFound("No running timer for this task")
	}
	return log, err
}

func (s *timeLogService) Resume(ctx context.Context, actor *Actor, taskID string) (*repository.TimeLog, error) {
	if err := authorize(actor, policy.TimeLogResume); err != nil {
		return nil, err
	}

	current, err := s.timeLogRepo.FindOpen(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return nil, ErrConflictingTimer
	}

	latest, err := s.timeLogRepo.FindLatest(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if latest == nil || latest.TaskID != taskID || latest.PauseReason == nil {
		return nil, ErrNotPaused
	}

	if _, err := s.trackableTask(ctx, actor, taskID); err != nil {
		return nil, err
	}
	return s.open(ctx, actor, taskID)
}

func (s *timeLogService) Stop(ctx context.Context, actor *Actor) (*repository.TimeLog, error) {
	if err := authorize(actor, policy.TimeLogStop); err != nil {
		return nil, err
	}
	log, err := s.timeLogRepo.CloseOpen(ctx, actor.ID, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NotFound("No running timer")
	}
	return log, err
}

func (s *timeLogService) Status(ctx context.Context, actor *Actor) (*TimerStatus, error) {
	if err := authorize(actor, policy.TimeLogStatus); err != nil {
		return nil, err
	}

	current, err := s.timeLogRepo.FindOpen(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return &TimerStatus{
			State:     TimerRunning,
			TaskID:    &current.TaskID,
			StartTime: &current.StartTime,
			Log:       current,
		}, nil
	}

	latest, err := s.timeLogRepo.FindLatest(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if latest != nil && latest.PauseReason != nil {
		return &TimerStatus{
			State:     TimerPaused,
			TaskID:    &latest.TaskID,
			StartTime: &latest.StartTime,
			Log:       latest,
		}, nil
	}
	return &TimerStatus{State: TimerIdle}, nil
}

func (s *timeLogService) TaskTotal(ctx context.Context, actor *Actor, taskID string) (*TaskTotal, error) {
	if err := authorize(actor, policy.TimeLogTaskTotal); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, NotFound("Task not found")
	}
	if actor.Role == types.RoleMember && !isAssignee(task, actor) {
		return nil, Forbidden("You can only view tasks assigned to you")
	}

	logs, err := s.timeLogRepo.FindByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []*repository.TimeLog{}
	}

	total := SumSegments(logs, s.now())
	return &TaskTotal{
		TaskID:       taskID,
		TotalSeconds: total,
		Hours:        HoursFromSeconds(total),
		Formatted:    FormatDuration(total),
		Logs:         logs,
	}, nil
}

// SumSegments adds closed durations and the elapsed part of open segments.
func SumSegments(logs []*repository.TimeLog, now time.Time) int64 {
	var total int64
	for _, l := range logs {
		if l.IsOpen() {
			if elapsed := int64(now.Sub(l.StartTime) / time.Second); elapsed > 0 {
				total += elapsed
			}
			continue
		}
		total += int64(l.DurationSeconds)
	}
	return total
}
