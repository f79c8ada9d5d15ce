// Package httpapi is the REST transport for the kanban engine. It resolves
// the caller's identity, turns requests into primary port calls and maps
// typed failures to status codes.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/example/kanban/internal/apperr"
	"github.com/example/kanban/internal/observability/metrics"
	"github.com/example/kanban/internal/ports/primary"
)

// Request headers.
const (
	HeaderAPIKey         = "X-API-Key"
	HeaderAgentSessionID = "X-Agent-Session-Id"
	HeaderWorkspaceID    = "X-Workspace-Id"
	HeaderRequestID      = "X-Request-Id"
)

// Services are the primary ports served over HTTP.
type Services struct {
	Identity   primary.IdentityService
	Tickets    primary.TicketService
	Docs       primary.DocService
	APIKeys    primary.APIKeyService
	Workspaces primary.WorkspaceService
}

// SessionVerifier validates an upstream session token.
type SessionVerifier interface {
	Verify(token string) (*primary.SessionIdentity, error)
}

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Options configures the router.
type Options struct {
	Logger zerolog.Logger
	// Sessions verifies cookie and bearer tokens. Nil disables session auth.
	Sessions      SessionVerifier
	SessionCookie string
	Health        HealthChecker
	// Registry serves /metrics and records HTTP metrics. Nil disables both.
	Registry *prometheus.Registry
}

// Server holds the handler dependencies.
type Server struct {
	svc  Services
	opts Options
	log  zerolog.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(svc Services, opts Options) *gin.Engine {
	s := &Server{svc: svc, opts: opts, log: opts.Logger.With().Str("component", "http").Logger()}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(s.recoverer(), s.requestLogger())
	if opts.Registry != nil {
		r.Use(metrics.HTTPMiddleware(opts.Registry))
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))
	}
	r.GET("/healthz", s.healthz)

	api := r.Group("/api", s.authenticate)
	api.GET("/me", s.me)
	api.GET("/workspaces", s.listWorkspaces)
	api.POST("/workspaces", s.createWorkspace)

	ws := api.Group("", s.requireWorkspace)
	ws.GET("/workspace", s.getWorkspace)
	ws.PATCH("/workspace", s.renameWorkspace)
	ws.DELETE("/workspace", s.deleteWorkspace)
	ws.GET("/workspace/members", s.listMembers)
	ws.POST("/workspace/members", s.addMember)
	ws.PATCH("/workspace/members/:userId", s.updateMemberRole)
	ws.DELETE("/workspace/members/:userId", s.removeMember)
	ws.GET("/workspace/docs", s.getWorkspaceDocs)
	ws.PUT("/workspace/docs", s.updateWorkspaceDocs)
	ws.GET("/workspace/docs/history", s.workspaceDocsHistory)

	ws.GET("/tickets", s.listTickets)
	ws.POST("/tickets", s.createTicket)
	ws.GET("/tickets/:id", s.getTicket)
	ws.PATCH("/tickets/:id", s.updateTicket)
	ws.DELETE("/tickets/:id", s.deleteTicket)
	ws.POST("/tickets/:id/claim", s.claimTicket)
	ws.POST("/tickets/:id/complete", s.completeTicket)
	ws.POST("/tickets/:id/status", s.updateTicketStatus)
	ws.POST("/tickets/:id/assign", s.assignTicket)
	ws.POST("/tickets/:id/unassign", s.unassignTicket)
	ws.POST("/tickets/:id/reconcile", s.reconcileTicket)
	ws.GET("/tickets/:id/comments", s.listComments)
	ws.POST("/tickets/:id/comments", s.addComment)
	ws.GET("/tickets/:id/activity", s.listActivity)

	ws.GET("/docs", s.listDocs)
	ws.POST("/docs", s.createDoc)
	ws.GET("/docs/:id", s.getDoc)
	ws.PATCH("/docs/:id", s.updateDoc)
	ws.DELETE("/docs/:id", s.deleteDoc)

	ws.GET("/api-keys", s.listKeys)
	ws.POST("/api-keys", s.createKey)
	ws.PATCH("/api-keys/:id", s.updateKeyRole)
	ws.DELETE("/api-keys/:id", s.deleteKey)

	r.NoRoute(notFound)
	r.NoMethod(notFound)
	return r
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": apperr.NotFoundMessage})
}

func (s *Server) healthz(c *gin.Context) {
	if s.opts.Health != nil {
		if err := s.opts.Health.Ping(c.Request.Context()); err != nil {
			s.log.Error().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
