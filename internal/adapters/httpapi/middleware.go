package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/example/kanban/internal/app"
	"github.com/example/kanban/internal/apperr"
	"github.com/example/kanban/internal/ctxutil"
	"github.com/example/kanban/internal/ports/primary"
)

const (
	principalKey = "kanban.principal"
	scopeKey     = "kanban.scope"
)

// WorkspaceRequiredMessage is returned when a session does not name a workspace.
const WorkspaceRequiredMessage = "X-Workspace-Id header or workspaceId query parameter is required"

// authenticate resolves the caller. An X-API-Key selects the key path;
// otherwise a session cookie or bearer token is verified. With neither, the
// key path reports the missing header. The agent session header only
// qualifies a key and is ignored for sessions.
func (s *Server) authenticate(c *gin.Context) {
	ctx := c.Request.Context()

	secret := c.GetHeader(HeaderAPIKey)
	token := s.sessionToken(c)

	if secret != "" || token == "" {
		p, err := s.svc.Identity.AuthenticateAPIKey(ctx, secret, c.GetHeader(HeaderAgentSessionID))
		if err != nil {
			s.fail(c, err)
			return
		}
		s.admit(c, *p)
		return
	}

	if s.opts.Sessions == nil {
		s.fail(c, apperr.Unauthenticated(app.InvalidSessionMessage))
		return
	}
	identity, err := s.opts.Sessions.Verify(token)
	if err != nil {
		s.fail(c, apperr.Unauthenticated(app.InvalidSessionMessage))
		return
	}
	p, err := s.svc.Identity.AuthenticateSession(ctx, *identity)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.admit(c, *p)
}

// admit stores the principal and makes its actor ambient for everything
// downstream of the handler.
func (s *Server) admit(c *gin.Context, p primary.Principal) {
	c.Set(principalKey, p)
	c.Request = c.Request.WithContext(ctxutil.WithActor(c.Request.Context(), p.Actor()))
	c.Next()
}

func (s *Server) sessionToken(c *gin.Context) string {
	if s.opts.SessionCookie != "" {
		if v, err := c.Cookie(s.opts.SessionCookie); err == nil && v != "" {
			return v
		}
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// requireWorkspace picks the target workspace. API keys default to their
// own workspace; sessions must name one.
func (s *Server) requireWorkspace(c *gin.Context) {
	p := principal(c)
	workspaceID := c.GetHeader(HeaderWorkspaceID)
	if workspaceID == "" {
		workspaceID = c.Query("workspaceId")
	}
	if workspaceID == "" && p.IsAgent() {
		workspaceID = p.WorkspaceID
	}
	if workspaceID == "" {
		s.fail(c, apperr.Validation("%s", WorkspaceRequiredMessage))
		return
	}
	c.Set(scopeKey, primary.Scope{Principal: p, WorkspaceID: workspaceID})
	c.Next()
}

func principal(c *gin.Context) primary.Principal {
	v, _ := c.Get(principalKey)
	p, _ := v.(primary.Principal)
	return p
}

func scope(c *gin.Context) primary.Scope {
	v, _ := c.Get(scopeKey)
	sc, _ := v.(primary.Scope)
	return sc
}

// requestLogger tags the request with a correlation id and writes one
// structured line per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := uuid.NewString()
		c.Request = c.Request.WithContext(ctxutil.WithRequestID(c.Request.Context(), id))
		c.Header(HeaderRequestID, id)
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		evt := s.log.Info()
		if status >= 500 {
			evt = s.log.Warn()
		}
		p := principal(c)
		evt.Str("request_id", id).
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("principal", string(p.Kind)).
			Msg("request")
	}
}

// recoverer turns a panic into a sanitized 500.
func (s *Server) recoverer() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.log.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": InternalErrorMessage})
	})
}
