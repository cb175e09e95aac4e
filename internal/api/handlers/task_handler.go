package handlers

import (
	"net/http"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/models"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/repository"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/service"
	"github.com/gin-gonic/gin"
)

var errInvalidDueDate = service.Validation("InvalidDueDate", "Due date must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")

// ============================================
// Task Handler
// ============================================

type TaskHandler struct {
	taskService service.TaskService
}

func (h *TaskHandler) Create(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	var req models.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	dueDate, err := models.ParseDueDate(req.DueDate)
	if err != nil {
		handleServiceError(c, errInvalidDueDate)
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), actor, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		TeamID:      req.TeamID,
		AssignedTo:  req.AssignedTo,
		Priority:    req.Priority,
		DueDate:     dueDate,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) List(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	var q models.TaskFilterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	tasks, err := h.taskService.Filter(c.Request.Context(), actor, repository.TaskQuery{
		Status:     q.Status,
		Priority:   q.Priority,
		TeamID:     q.TeamID,
		AssignedTo: q.AssignedTo,
		SortBy:     q.SortBy,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) Get(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), actor, taskID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) History(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	events, err := h.taskService.History(c.Request.Context(), actor, taskID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

func (h *TaskHandler) ListByTeam(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	teamID, ok := pathID(c, "teamId")
	if !ok {
		return
	}

	tasks, err := h.taskService.ListByTeam(c.Request.Context(), actor, teamID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, tasks)
}

// ============================================
// Lifecycle
// ============================================

type transitionFunc func(*gin.Context, *service.Actor, string) (*repository.Task, error)

// transition runs a body-less lifecycle call for the task in the path.
func (h *TaskHandler) transition(c *gin.Context, fn transitionFunc) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	task, err := fn(c, actor, taskID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Start(c *gin.Context) {
	h.transition(c, func(c *gin.Context, actor *service.Actor, id string) (*repository.Task, error) {
		return h.taskService.MarkInProgress(c.Request.Context(), actor, id)
	})
}

func (h *TaskHandler) Submit(c *gin.Context) {
	h.transition(c, func(c *gin.Context, actor *service.Actor, id string) (*repository.Task, error) {
		return h.taskService.RequestApproval(c.Request.Context(), actor, id)
	})
}

func (h *TaskHandler) Approve(c *gin.Context) {
	h.transition(c, func(c *gin.Context, actor *service.Actor, id string) (*repository.Task, error) {
		return h.taskService.Approve(c.Request.Context(), actor, id)
	})
}

func (h *TaskHandler) Reject(c *gin.Context) {
	var req models.RejectTaskRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	h.transition(c, func(c *gin.Context, actor *service.Actor, id string) (*repository.Task, error) {
		return h.taskService.Reject(c.Request.Context(), actor, id, req.Reason)
	})
}

func (h *TaskHandler) Supersede(c *gin.Context) {
	var req models.SupersedeTaskRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}
	dueDate, err := models.ParseDueDate(req.DueDate)
	if err != nil {
		handleServiceError(c, errInvalidDueDate)
		return
	}

	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.Supersede(c.Request.Context(), actor, taskID, service.SupersedeInput{
		AssignedTo:  req.AssignedTo,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     dueDate,
		Note:        req.Note,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}
