package web

import (
	"time"

	"github.com/gin-gonic/gin"

	"cafelist/internal/models"
	"cafelist/internal/stats"
)

const currentUserKey = "currentUser"

// CurrentUser returns the authenticated user for this request, or nil
// for an anonymous session.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// ResolveUser decodes the session cookie and loads the user before any
// handler runs. A cookie pointing at a deleted user is cleared and the
// request proceeds as anonymous.
func (h *Handler) ResolveUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := h.Session.GetSession(c.Request)
		if err == nil {
			user, err := h.Store.UserByID(session.UserID)
			if err == nil {
				c.Set(currentUserKey, user)
			} else {
				h.Session.ClearSession(c.Writer)
			}
		}
		c.Next()
	}
}

// RequireAuth rejects anonymous requests before the handler runs,
// sending them to the login page with a flash message.
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			h.redirectWithFlash(c, "/login", "Please login first")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RecordStats feeds the collector after each request completes.
func RecordStats(collector *stats.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		collector.Record(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
