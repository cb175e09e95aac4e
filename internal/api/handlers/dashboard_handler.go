package handlers

import (
	"net/http"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ============================================
// Dashboard Handler
// ============================================

type DashboardHandler struct {
	dashboardService service.DashboardService
}

func (h *DashboardHandler) Member(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	dash, err := h.dashboardService.Member(c.Request.Context(), actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (h *DashboardHandler) Admin(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	dash, err := h.dashboardService.Admin(c.Request.Context(), actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (h *DashboardHandler) System(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	dash, err := h.dashboardService.System(c.Request.Context(), actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}
