package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/logging"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/policy"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/service"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var log = logging.Component("HTTP")

const (
	actorKey  = "actor"
	userIDKey = "userID"
)

// StatusFor maps a business error kind to its HTTP status.
func StatusFor(kind service.Kind) int {
	switch kind {
	case service.KindUnauthenticated:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// AbortWithError writes err as JSON and stops the chain. Unknown errors are
// logged and reported, and the client only sees a generic message.
func AbortWithError(c *gin.Context, err error) {
	if e, ok := service.AsError(err); ok {
		c.AbortWithStatusJSON(StatusFor(e.Kind), gin.H{"error": e.Message, "code": e.Code})
		return
	}

	log.WithFields(logrus.Fields{"method": c.Request.Method, "path": c.Request.URL.Path}).
		WithError(err).Error("❌ [Error] Internal error")
	sentry.CaptureException(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": "Internal"})
}

// AuthMiddleware validates the bearer token and reloads the user behind it
// on every request, so role and approval changes apply immediately.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			AbortWithError(c, service.ErrUnauthenticated)
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			AbortWithError(c, service.ErrInvalidToken)
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			log.WithField("path", c.Request.URL.Path).Debug("❌ [Auth] Invalid token")
			AbortWithError(c, err)
			return
		}

		actor, err := authService.ResolveActor(c.Request.Context(), claims.Subject)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(actorKey, actor)
		c.Set(userIDKey, actor.ID)
		c.Next()
	}
}

// RequireRoles rejects actors whose role is not allowed to perform op.
// Services check the same table; this stops the request before binding.
func RequireRoles(op policy.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := GetActor(c)
		if actor == nil {
			AbortWithError(c, service.ErrUnauthenticated)
			return
		}
		if !policy.Allows(actor.Role, op) {
			log.WithFields(logrus.Fields{"user_id": actor.ID, "role": actor.Role, "op": op}).
				Debug("⚠️ [Auth] Role not allowed")
			AbortWithError(c, service.ErrForbidden)
			return
		}
		c.Next()
	}
}

// RequestLogger logs all incoming requests with details
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  status,
			"latency": time.Since(start).String(),
		})
		if userID := GetUserID(c); userID != "" {
			entry = entry.WithField("user_id", userID)
		}

		switch {
		case status >= 500:
			entry.Error("❌ Request failed")
		case status >= 400:
			entry.Warn("⚠️ Request rejected")
		default:
			entry.Info("✅ Request served")
		}
	}
}

// GetActor returns the authenticated actor, or nil.
func GetActor(c *gin.Context) *service.Actor {
	v, exists := c.Get(actorKey)
	if !exists {
		return nil
	}
	actor, _ := v.(*service.Actor)
	return actor
}

// RequireActor writes 401 when no actor is in context.
func RequireActor(c *gin.Context) (*service.Actor, bool) {
	actor := GetActor(c)
	if actor == nil {
		AbortWithError(c, service.ErrUnauthenticated)
		return nil, false
	}
	return actor, true
}

// GetUserID extracts user ID from gin context
func GetUserID(c *gin.Context) string {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return ""
	}
	id, _ := userID.(string)
	return id
}
