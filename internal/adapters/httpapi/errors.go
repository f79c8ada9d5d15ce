package httpapi

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/example/kanban/internal/apperr"
	"github.com/example/kanban/internal/ctxutil"
)

// InternalErrorMessage replaces any 500 message that may leak internals.
const InternalErrorMessage = "Internal server error"

// InvalidBodyMessage is returned for unparseable JSON bodies.
const InvalidBodyMessage = "Invalid JSON body"

// leakyMessage matches storage identifiers, SQL fragments and trace tokens.
var leakyMessage = regexp.MustCompile(`(?i)sqlite|sql:|constraint|no such (table|column)|database|\b(request|trace|span)[_-]?id\b|[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}|\.go:\d+`)

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// sanitize returns msg unless it looks like it carries internal detail.
func sanitize(msg string) string {
	if msg == "" || leakyMessage.MatchString(msg) {
		return InternalErrorMessage
	}
	return msg
}

// fail aborts the request with the status for err. Internal failures are
// logged in full and rendered with a sanitized message.
func (s *Server) fail(c *gin.Context, err error) {
	e, ok := apperr.As(err)
	if !ok || e.Kind == apperr.KindInternal {
		s.log.Error().Err(err).
			Str("request_id", ctxutil.RequestIDFromContext(c.Request.Context())).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("internal error")
		msg := InternalErrorMessage
		if ok {
			msg = sanitize(e.Message)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msg})
		return
	}

	body := gin.H{"error": e.Message}
	for k, v := range e.Details {
		body[k] = v
	}
	c.AbortWithStatusJSON(statusFor(e.Kind), body)
}
