package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/notification"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/policy"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/repository"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/types"
)

// ============================================
// Task Service
// ============================================

type CreateTaskInput struct {
	Title       string
	Description string
	TeamID      string
	AssignedTo  string
	Priority    string
	DueDate     *time.Time
}

// SupersedeInput describes the replacement task. Empty fields are copied
// from the rejected source.
type SupersedeInput struct {
	AssignedTo  string
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time
	Note        string
}

type TaskService interface {
	Create(ctx context.Context, actor *Actor, in CreateTaskInput) (*repository.Task, error)
	Get(ctx context.Context, actor *Actor, taskID string) (*repository.Task, error)
	History(ctx context.Context, actor *Actor, taskID string) ([]*repository.TaskEvent, error)
	Filter(ctx context.Context, actor *Actor, q repository.TaskQuery) ([]*repository.Task, error)
	ListByTeam(ctx context.Context, actor *Actor, teamID string) ([]*repository.Task, error)

	// Lifecycle
	MarkInProgress(ctx context.Context, actor *Actor, taskID string) (*repository.Task, error)
	RequestApproval(ctx context.Context, actor *Actor, taskID string) (*repository.Task, error)
	Approve(ctx context.Context, actor *Actor, taskID string) (*repository.Task, error)
	Reject(ctx context.Context, actor *Actor, taskID, reason string) (*repository.Task, error)
	Supersede(ctx context.Context, actor *Actor, taskID string, in SupersedeInput) (*repository.Task, error)
}

type taskService struct {
	taskRepo   repository.TaskRepository
	eventRepo  repository.TaskEventRepository
	teamRepo   repository.TeamRepository
	reportRepo repository.ReportRepository
	notifier   Notifier
	now        func() time.Time
}

func NewTaskService(
	taskRepo repository.TaskRepository,
	eventRepo repository.TaskEventRepository,
	teamRepo repository.TeamRepository,
	reportRepo repository.ReportRepository,
	notifier Notifier,
	now func() time.Time,
) TaskService {
	return &taskService{
		taskRepo:   taskRepo,
		eventRepo:  eventRepo,
		teamRepo:   teamRepo,
		reportRepo: reportRepo,
		notifier:   notifier,
		now:        now,
	}
}

func taskLink(taskID string) string {
	return "/tasks/" + taskID
}

// notify runs after the change is committed and outlives the request.
func (s *taskService) notify(ctx context.Context, recipient *string, title, message, kind, taskID string) {
	if recipient == nil || *recipient == "" {
		return
	}
	s.notifier.Notify(context.WithoutCancel(ctx), notification.Message{
		RecipientID: *recipient,
		Title:       title,
		Message:     message,
		Type:        kind,
		Link:        taskLink(taskID),
	})
}

// checkDueDate rejects dates before the start of the current UTC day.
func (s *taskService) checkDueDate(due *time.Time) error {
	if due == nil {
		return nil
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	if due.UTC().Before(today) {
		return Validation("DueDateInPast", "Due date cannot be in the past")
	}
	return nil
}

func (s *taskService) checkAssignee(ctx context.Context, teamID, userID string) error {
	if userID == "" {
		return Validation("AssigneeRequired", "assignedTo is required")
	}
	ok, err := s.teamRepo.IsMember(ctx, teamID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return Validation("AssigneeNotInTeam", "Assignee must be a member of the team")
	}
	return nil
}

func (s *taskService) Create(ctx context.Context, actor *Actor, in CreateTaskInput) (*repository.Task, error) {
	if err := authorize(actor, policy.TaskCreate); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, Validation("TitleRequired", "Title is required")
	}
	priority := in.Priority
	if priority == "" {
		priority = types.PriorityMedium
	}
	if !types.IsValidPriority(priority) {
		return nil, Validation("InvalidPriority", "Priority must be Low, Medium or High")
	}
	if err := s.checkDueDate(in.DueDate); err != nil {
		return nil, err
	}
	if in.TeamID == "" {
		return nil, Validation("TeamRequired", "teamId is required")
	}

	team, err := s.teamRepo.FindByID(ctx, in.TeamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, NotFound("Team not found")
	}
	if err := s.checkAssignee(ctx, team.ID, in.AssignedTo); err != nil {
		return nil, err
	}

	task := &repository.Task{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		TeamID:      &team.ID,
		AssignedTo:  &in.AssignedTo,
		CreatedBy:   &actor.ID,
		Priority:    priority,
		Status:      types.StatusTodo,
		DueDate:     in.DueDate,
	}
	event := &repository.TaskEvent{
		ActorID:  &actor.ID,
		Kind:     types.EventCreated,
		ToStatus: types.StatusTodo,
	}
	if err := s.taskRepo.Create(ctx, task, event); err != nil {
		return nil, err
	}

	s.notify(ctx, task.AssignedTo, "New Assignment",
		fmt.Sprintf("You have been assigned a new task: %s", task.Title),
		types.NotificationInfo, task.ID)
	return task, nil
}

// visibleTask loads a task and hides it from Members it is not assigned to.
func (s *taskService) visibleTask(ctx context.Context, actor *Actor, taskID string) (*repository.Task, error) {
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
	return task, nil
}

func isAssignee(task *repository.Task, actor *Actor) bool {
	return task.AssignedTo != nil && *task.AssignedTo == actor.ID
}

func (s *taskService) Get(ctx context.Context, actor *Actor, taskID string) (*repository.Task, error) {
	if err := authorize(actor, policy.TaskGet); err != nil {
		return nil, err
	}
	return s.visibleTask(ctx, actor, taskID)
}

func (s *taskService) History(ctx context.Context, actor *Actor, taskID string) ([]*repository.TaskEvent, error) {
	if err := authorize(actor, policy.TaskHistory); err != nil {
		return nil, err
	}
	if _, err := s.visibleTask(ctx, actor, taskID); err != nil {
		return nil, err
	}
	events, err := s.eventRepo.FindByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []*repository.TaskEvent{}
	}
	return events, nil
}

func (s *taskService) Filter(ctx context.Context, actor *Actor, q repository.TaskQuery) ([]*repository.Task, error) {
	if err := authorize(actor, policy.TaskFilter); err != nil {
		return nil, err
	}
	if q.Status != "" && !types.IsValidTaskStatus(q.Status) {
		return nil, Validation("InvalidStatus", "Unknown task status")
	}
	if q.Priority != "" && !types.IsValidPriority(q.Priority) {
		return nil, Validation("InvalidPriority", "Priority must be Low, Medium or High")
	}
	if q.SortBy != "" && !types.IsValidSortKey(q.SortBy) {
		return nil, Validation("InvalidSort", "sortBy must be dueDate or priority")
	}

	// Members only ever see their own assignments.
	if actor.Role == types.RoleMember {
		q.AssignedTo = actor.ID
	}

	tasks, err := s.reportRepo.FilterTasks(ctx, q)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []*repository.Task{}
	}
	return tasks, nil
}

func (s *taskService) ListByTeam(ctx context.Context, actor *Actor, teamID string) ([]*repository.Task, error) {
	if err := authorize(actor, policy.TaskListByTeam); err != nil {
		return nil, err
	}
	team, err := s.teamRepo.FindByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, NotFound("Team not found")
	}
	tasks, err := s.taskRepo.FindByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []*repository.Task{}
	}
	return tasks, nil
}

// ============================================
// Lifecycle
// ============================================

type transitionRule struct {
	op           policy.Operation
	from, to     string
	kind         string
	assigneeOnly bool
}

var (
	startTransition   = transitionRule{policy.TaskMarkInProgress, types.StatusTodo, types.StatusInProgress, types.EventStarted, true}
	submitTransition  = transitionRule{policy.TaskRequestApproval, types.StatusInProgress, types.StatusPendingApproval, types.EventSubmitted, true}
	approveTransition = transitionRule{policy.TaskApprove, types.StatusPendingApproval, types.StatusCompleted, types.EventApproved, false}
	rejectTransition  = transitionRule{policy.TaskReject, types.StatusPendingApproval, types.StatusTodo, types.EventRejected, false}
)

// transition applies one edge of the lifecycle. The repository update is
// conditional on the current status, so of two racing calls only one
// succeeds and only that one records an event.
func (s *taskService) transition(ctx context.Context, actor *Actor, rule transitionRule, taskID, note string) (*repository.Task, error) {
	if err := authorize(actor, rule.op); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, NotFound("Task not found")
	}
	if rule.assigneeOnly && !isAssignee(task, actor) {
		return nil, Forbidden("Only the assignee can perform this action")
	}
	if task.Status != rule.from {
		return nil, ErrInvalidTransition
	}

	updated, err := s.taskRepo.Transition(ctx, repository.Transition{
		TaskID: taskID,
		From:   rule.from,
		To:     rule.to,
		Event: &repository.TaskEvent{
			ActorID: &actor.ID,
			Kind:    rule.kind,
			Note:    note,
		},
	})
	switch {
	case errors.Is(err, repository.ErrStatusChanged):
		return nil, ErrInvalidTransition
	case errors.Is(err, repository.ErrNotFound):
		return nil, NotFound("Task not found")
	case err != nil:
		return nil, err
	}
	return updated, nil
}

func (s *taskService) MarkInProgress(ctx context.Context, actor *Actor, taskID string) (*repository.Task, error) {
	return s.transition(ctx, actor, startTransition, taskID, "")
}

func (s *taskService) RequestApproval(ctx context.Context, actor *Actor, taskID string) (*repository.Task, error) {
	task, err := s.transition(ctx, actor, submitTransition, taskID, "")
	if err != nil {
		return nil, err
	}
	s.notify(ctx, task.CreatedBy, "Approval Requested",
		fmt.Sprintf("%s submitted \"%s\" for approval", actor.Name, task.Title),
		types.NotificationWarning, task.ID)
	return task, nil
}

func (s *taskService) Approve(ctx context.Context, actor *Actor, taskID string) (*repository.Task, error) {
	task, err := s.transition(ctx, actor, approveTransition, taskID, "")
	if err != nil {
		return nil, err
	}
	s.notify(ctx, task.AssignedTo, "Task Approved",
		fmt.Sprintf("Your task \"%s\" has been approved", task.Title),
		types.NotificationSuccess, task.ID)
	return task, nil
}

func (s *taskService) Reject(ctx context.Context, actor *Actor, taskID, reason string) (*repository.Task, error) {
	reason = strings.TrimSpace(reason)
	task, err := s.transition(ctx, actor, rejectTransition, taskID, reason)
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Your task \"%s\" has been rejected", task.Title)
	if reason != "" {
		message += ": " + reason
	}
	s.notify(ctx, task.AssignedTo, "Task Rejected", message, types.NotificationError, task.ID)
	return task, nil
}

func (s *taskService) Supersede(ctx context.Context, actor *Actor, taskID string, in SupersedeInput) (*repository.Task, error) {
	if err := authorize(actor, policy.TaskSupersede); err != nil {
		return nil, err
	}

	source, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, NotFound("Task not found")
	}
	if err := supersedable(source.Status); err != nil {
		return nil, err
	}

	rejected, err := s.eventRepo.HasKind(ctx, taskID, types.EventRejected)
	if err != nil {
		return nil, err
	}
	if !rejected {
		return nil, Conflict(ErrInvalidTransition.Code, "Only rejected tasks can be reassigned")
	}
	if source.TeamID == nil {
		return nil, Validation("TeamRequired", "Task no longer belongs to a team")
	}

	replacement := &repository.Task{
		Title:       source.Title,
		Description: source.Description,
		TeamID:      source.TeamID,
		AssignedTo:  source.AssignedTo,
		CreatedBy:   &actor.ID,
		Priority:    source.Priority,
		Status:      types.StatusTodo,
		DueDate:     source.DueDate,
	}
	if t := strings.TrimSpace(in.Title); t != "" {
		replacement.Title = t
	}
	if d := strings.TrimSpace(in.Description); d != "" {
		replacement.Description = d
	}
	if in.Priority != "" {
		if !types.IsValidPriority(in.Priority) {
			return nil, Validation("InvalidPriority", "Priority must be Low, Medium or High")
		}
		replacement.Priority = in.Priority
	}
	if in.DueDate != nil {
		if err := s.checkDueDate(in.DueDate); err != nil {
			return nil, err
		}
		replacement.DueDate = in.DueDate
	}
	if in.AssignedTo != "" {
		assignee := in.AssignedTo
		replacement.AssignedTo = &assignee
	}
	if replacement.AssignedTo == nil {
		return nil, Validation("AssigneeRequired", "assignedTo is required")
	}
	if err := s.checkAssignee(ctx, *replacement.TeamID, *replacement.AssignedTo); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.Supersede(ctx, taskID, replacement, actor.ID, strings.TrimSpace(in.Note))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, NotFound("Task not found")
		case repository.IsDuplicate(err, repository.ConstraintReassignedFrom):
			return nil, ErrAlreadySuperseded
		case errors.Is(err, repository.ErrStatusChanged):
			// Lost a race; report what the source turned into.
			current, findErr := s.taskRepo.FindByID(ctx, taskID)
			if findErr != nil {
				return nil, findErr
			}
			if current == nil {
				return nil, NotFound("Task not found")
			}
			if err := supersedable(current.Status); err != nil {
				return nil, err
			}
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	s.notify(ctx, task.AssignedTo, "New Assignment",
		fmt.Sprintf("You have been assigned a reassigned task: %s", task.Title),
		types.NotificationInfo, task.ID)
	return task, nil
}

// supersedable reports why a task in status cannot be replaced, if it cannot.
func supersedable(status string) error {
	switch status {
	case types.StatusTodo:
		return nil
	case types.StatusRejected:
		return ErrAlreadySuperseded
	default:
		return ErrInvalidTransition
	}
}
