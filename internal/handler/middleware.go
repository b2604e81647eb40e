package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quillpress/internal/db"
	"github.com/quillpress/internal/service"
	"github.com/sirupsen/logrus"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
	currentUserKey  = "current_user"
	sessionUserKey  = "user_id"
)

// RequestID 为每个请求注入唯一的 request_id，沿用客户端传入的值。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogger writes one structured line per request.
func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"request_id": c.GetString(requestIDKey),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request completed")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("request completed")
		default:
			entry.Info("request completed")
		}
	}
}

// Authenticate resolves the caller from a bearer token, falling back to the
// api-auth session. A malformed or expired token is rejected even on reads.
func (a *API) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header != "" {
			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				respondError(c, http.StatusUnauthorized, "Authorization header must contain two space-delimited values")
				c.Abort()
				return
			}

			user, err := a.auth.Authenticate(strings.TrimSpace(token))
			if err != nil {
				a.handleServiceError(c, err)
				c.Abort()
				return
			}
			c.Set(currentUserKey, user)
			c.Next()
			return
		}

		if user := a.sessionUser(c); user != nil {
			c.Set(currentUserKey, user)
		}
		c.Next()
	}
}

func (a *API) sessionUser(c *gin.Context) *db.User {
	// 未挂载 sessions 中间件时 sessions.Default 会 panic
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return nil
	}

	id, ok := sessions.Default(c).Get(sessionUserKey).(uint)
	if !ok {
		return nil
	}
	user, err := a.users.Get(id)
	if err != nil {
		if !errors.Is(err, service.ErrUserNotFound) {
			a.logger(c).WithError(err).Warn("failed to load session user")
		}
		return nil
	}
	return user
}

// RequireUser 是写操作的认证中间件
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentUser(c); !ok {
			respondError(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
			c.Abort()
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) (*db.User, bool) {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*db.User)
	return user, ok && user != nil
}

func actor(c *gin.Context) service.Actor {
	user, ok := currentUser(c)
	if !ok {
		return service.Actor{}
	}
	return service.Actor{UserID: user.ID, IsStaff: user.IsStaff}
}
