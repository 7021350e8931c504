// Package api exposes the portal's intents as a JSON HTTP API.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/services"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/proxy"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/sheetsync"
)

const (
	ctxActor = "actor"
	ctxToken = "token"
)

// OutboxView is what the API needs from the sync outbox
type OutboxView interface {
	Entries() []sheetsync.Entry
	Retry(ctx context.Context, id string) (sheetsync.Entry, error)
}

// Server routes HTTP requests to the portal
type Server struct {
	portal *services.Portal
	outbox OutboxView
	proxy  *proxy.Handler
	logger *zap.Logger
	engine *gin.Engine
}

// NewServer builds the router. outbox may be nil when sync is not wired.
func NewServer(portal *services.Portal, outbox OutboxView, proxyHandler *proxy.Handler, logger *zap.Logger) *Server {
	s := &Server{
		portal: portal,
		outbox: outbox,
		proxy:  proxyHandler,
		logger: logger,
		engine: gin.New(),
	}
	s.engine.Use(gin.Recovery(), requestLogger(logger))
	s.registerRoutes()
	return s
}

// Handler returns the root http.Handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	r := s.engine
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if s.proxy != nil {
		s.proxy.Register(r)
	}

	api := r.Group("/api", s.sessionMiddleware())

	// Open to everyone
	api.POST("/session/student", s.signInStudent)
	api.POST("/session/director", s.signInDirector)
	api.GET("/session", s.currentSession)
	api.DELETE("/session", s.signOut)
	api.GET("/events", s.listEvents)
	api.GET("/weekly", s.weekly)
	api.GET("/calendar.ics", s.calendarFeed)
	api.GET("/absences", s.listAbsences)
	api.GET("/roster", s.listRoster)
	api.GET("/roster/sections", s.listSections)
	api.GET("/roster/template", s.rosterTemplate)
	// Previews are open; applying an import is checked by the store
	api.POST("/roster/import", s.importRoster)

	student := api.Group("", RequireRole(model.RoleStudent))
	{
		student.POST("/events/:id/absences", s.submitAbsence)
		student.POST("/absences/:id/cancel", s.cancelAbsence)
	}

	director := api.Group("", RequireRole(model.RoleDirector))
	{
		director.POST("/events", s.createEvents)
		director.PUT("/events/:id", s.updateEvent)
		director.DELETE("/events/:id", s.deleteEvent)
		director.POST("/absences/:id/decision", s.decideAbsence)
		director.GET("/settings", s.getSettings)
		director.PUT("/settings", s.saveSettings)
		director.POST("/settings/ping", s.testConnection)
		director.POST("/reset", s.resetDemo)
		director.GET("/sync/outbox", s.listOutbox)
		director.POST("/sync/outbox/:id/retry", s.retryOutbox)
	}
}

// sessionMiddleware resolves the bearer token to an actor; unknown or
// expired tokens act as guests
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		c.Set(ctxToken, token)
		c.Set(ctxActor, s.portal.Sessions().Actor(token))
		c.Next()
	}
}

// RequireRole rejects guests with 401 and other roles with 403
func RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorFrom(c)
		if actor.Role == model.RoleGuest {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "sign in required"})
			return
		}
		if actor.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "requires " + string(role) + " role"})
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func actorFrom(c *gin.Context) model.Actor {
	if v, ok := c.Get(ctxActor); ok {
		if actor, ok := v.(model.Actor); ok {
			return actor
		}
	}
	return model.Guest
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}
