package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/kanban/internal/ports/primary"
)

func (s *Server) listDocs(c *gin.Context) {
	filters := primary.DocFilters{
		ParentID: c.Query("parentId"),
		Archived: c.Query("archived"),
	}
	docs, err := s.svc.Docs.ListDocs(c.Request.Context(), scope(c), filters)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list(docs))
}

func (s *Server) createDoc(c *gin.Context) {
	var req primary.CreateDocRequest
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	d, err := s.svc.Docs.CreateDoc(c.Request.Context(), scope(c), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (s *Server) getDoc(c *gin.Context) {
	d, err := s.svc.Docs.GetDoc(c.Request.Context(), scope(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) updateDoc(c *gin.Context) {
	var req primary.UpdateDocRequest
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	d, err := s.svc.Docs.UpdateDoc(c.Request.Context(), scope(c), c.Param("id"), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) deleteDoc(c *gin.Context) {
	if err := s.svc.Docs.DeleteDoc(c.Request.Context(), scope(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
