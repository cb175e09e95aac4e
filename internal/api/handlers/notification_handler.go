package handlers

import (
	"net/http"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/models"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ============================================
// Notification Handler
// ============================================

type NotificationHandler struct {
	notificationService service.NotificationService
	counts              CountPublisher
}

func (h *NotificationHandler) List(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	unreadOnly := c.Query("unread") == "true"

	notifications, err := h.notificationService.List(c.Request.Context(), actor, unreadOnly)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, notifications)
}

func (h *NotificationHandler) Count(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	count, err := h.notificationService.Count(c.Request.Context(), actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, count)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.MarkAsRead(c.Request.Context(), actor, id); err != nil {
		handleServiceError(c, err)
		return
	}
	h.publishCount(c, actor)

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	updated, err := h.notificationService.MarkAllAsRead(c.Request.Context(), actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	h.publishCount(c, actor)

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: gin.H{"updated": updated}})
}

// publishCount pushes the new unread count to the actor's open sockets.
func (h *NotificationHandler) publishCount(c *gin.Context, actor *service.Actor) {
	count, err := h.notificationService.Count(c.Request.Context(), actor)
	if err != nil {
		return
	}
	h.counts.SendNotificationCount(actor.ID, count.Total, count.Unread)
}
