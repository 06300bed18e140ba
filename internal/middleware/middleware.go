package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/models"
	"storefront/internal/service"
)

const (
	// UserIDHeader identifica al usuario que hace la petición
	UserIDHeader = "user-id"

	userKey = "currentUser"
)

// Authenticator resuelve el usuario de la cabecera; lo implementa service.UserService
type Authenticator interface {
	Authenticate(ctx context.Context, rawID string) (*models.User, error)
	IsAdmin(ctx context.Context, rawID string) (bool, error)
}

func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		statusCode := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"status_code": statusCode,
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"remote_ip":   c.ClientIP(),
			"latency_ms":  time.Since(startTime).Milliseconds(),
		})

		switch {
		case len(c.Errors) > 0:
			entry.Error(c.Errors.ByType(gin.ErrorTypePrivate).String())
		case statusCode >= 500:
			entry.Error("Request completed with server error")
		case statusCode >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// RequireUser exige la cabecera user-id de un usuario activo
func RequireUser(auth Authenticator, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawID := c.GetHeader(UserIDHeader)
		if rawID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), rawID)
		switch {
		case err == nil:
		case errors.Is(err, service.ErrInvalidCredentials):
			log.Warnf("Middleware: unknown user-id %q", rawID)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		case errors.Is(err, service.ErrUserDeactivated):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		default:
			log.Errorf("Middleware: failed to authenticate %q: %v", rawID, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// RequireAdmin va después de RequireUser
func RequireAdmin(auth Authenticator, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		isAdmin, err := auth.IsAdmin(c.Request.Context(), user.ID.Hex())
		if err != nil {
			log.Errorf("Middleware: admin check for %s failed: %v", user.ID.Hex(), err)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		if !isAdmin {
			log.Warnf("Middleware: user %s is not an admin", user.ID.Hex())
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}
