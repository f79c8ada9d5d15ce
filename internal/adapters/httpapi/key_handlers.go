package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/kanban/internal/ports/primary"
)

type roleRequest struct {
	Role string `json:"role"`
}

func (s *Server) listKeys(c *gin.Context) {
	keys, err := s.svc.APIKeys.ListKeys(c.Request.Context(), scope(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list(keys))
}

// createKey is the only response that ever carries a plaintext secret.
func (s *Server) createKey(c *gin.Context) {
	var req primary.CreateAPIKeyRequest
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	created, err := s.svc.APIKeys.CreateKey(c.Request.Context(), scope(c), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusCreated, created)
}

func (s *Server) updateKeyRole(c *gin.Context) {
	var req roleRequest
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	key, err := s.svc.APIKeys.UpdateKeyRole(c.Request.Context(), scope(c), c.Param("id"), req.Role)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, key)
}

func (s *Server) deleteKey(c *gin.Context) {
	if err := s.svc.APIKeys.DeleteKey(c.Request.Context(), scope(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
