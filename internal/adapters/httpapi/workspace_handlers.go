package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/kanban/internal/ports/primary"
)

func (s *Server) me(c *gin.Context) {
	me, err := s.svc.Workspaces.Me(c.Request.Context(), principal(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	me.Workspaces = list(me.Workspaces)
	c.JSON(http.StatusOK, me)
}

func (s *Server) listWorkspaces(c *gin.Context) {
	workspaces, err := s.svc.Workspaces.ListWorkspaces(c.Request.Context(), principal(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list(workspaces))
}

func (s *Server) createWorkspace(c *gin.Context) {
	var req primary.CreateWorkspaceRequest
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	ws, err := s.svc.Workspaces.CreateWorkspace(c.Request.Context(), principal(c), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, ws)
}

func (s *Server) getWorkspace(c *gin.Context) {
	ws, err := s.svc.Workspaces.GetWorkspace(c.Request.Context(), scope(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ws)
}

func (s *Server) renameWorkspace(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	ws, err := s.svc.Workspaces.RenameWorkspace(c.Request.Context(), scope(c), req.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ws)
}

func (s *Server) deleteWorkspace(c *gin.Context) {
	if err := s.svc.Workspaces.DeleteWorkspace(c.Request.Context(), scope(c)); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listMembers(c *gin.Context) {
	members, err := s.svc.Workspaces.ListMembers(c.Request.Context(), scope(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list(members))
}

func (s *Server) addMember(c *gin.Context) {
	var req primary.AddMemberRequest
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	m, err := s.svc.Workspaces.AddMember(c.Request.Context(), scope(c), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (s *Server) updateMemberRole(c *gin.Context) {
	var req roleRequest
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	m, err := s.svc.Workspaces.UpdateMemberRole(c.Request.Context(), scope(c), c.Param("userId"), req.Role)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) removeMember(c *gin.Context) {
	if err := s.svc.Workspaces.RemoveMember(c.Request.Context(), scope(c), c.Param("userId")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getWorkspaceDocs(c *gin.Context) {
	docs, err := s.svc.Workspaces.GetDocs(c.Request.Context(), scope(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (s *Server) updateWorkspaceDocs(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	docs, err := s.svc.Workspaces.UpdateDocs(c.Request.Context(), scope(c), req.Content)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (s *Server) workspaceDocsHistory(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	history, err := s.svc.Workspaces.DocsHistory(c.Request.Context(), scope(c), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list(history))
}
