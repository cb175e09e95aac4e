package handlers

import (
	"net/http"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/models"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var errInvalidID = service.Validation("InvalidID", "Invalid id")

func handleServiceError(c *gin.Context, err error) {
	middleware.AbortWithError(c, err)
}

// bindError answers a failed ShouldBind with field details when available.
func bindError(c *gin.Context, err error) {
	if fields, ok := models.FormatValidationErrors(err); ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Validation failed",
			Code:    "InvalidInput",
			Details: fields,
		})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
		Error: "Invalid request body",
		Code:  "InvalidInput",
	})
}

// pathID reads a uuid path parameter, answering 400 when it is malformed.
func pathID(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		handleServiceError(c, errInvalidID)
		return "", false
	}
	return id, true
}
