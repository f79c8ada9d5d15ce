package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/kanban/internal/apperr"
	"github.com/example/kanban/internal/ports/primary"
)

// InvalidFieldsMessage is returned for an unknown fields= projection.
const InvalidFieldsMessage = "Invalid fields parameter"

func (s *Server) listTickets(c *gin.Context) {
	filters := primary.TicketFilters{
		Status:   c.Query("status"),
		ParentID: c.Query("parentId"),
		DocID:    c.Query("docId"),
		OwnerID:  c.Query("ownerId"),
		Archived: c.Query("archived"),
	}
	switch c.Query("fields") {
	case "":
	case "summary":
		filters.Summary = true
	default:
		s.fail(c, apperr.Validation("%s", InvalidFieldsMessage))
		return
	}

	tickets, err := s.svc.Tickets.ListTickets(c.Request.Context(), scope(c), filters)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list(tickets))
}

func (s *Server) createTicket(c *gin.Context) {
	var req primary.CreateTicketRequest
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	t, err := s.svc.Tickets.CreateTicket(c.Request.Context(), scope(c), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (s *Server) getTicket(c *gin.Context) {
	t, err := s.svc.Tickets.GetTicket(c.Request.Context(), scope(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) updateTicket(c *gin.Context) {
	var req primary.UpdateTicketRequest
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	t, err := s.svc.Tickets.UpdateTicket(c.Request.Context(), scope(c), c.Param("id"), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) deleteTicket(c *gin.Context) {
	res, err := s.svc.Tickets.DeleteTicket(c.Request.Context(), scope(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) claimTicket(c *gin.Context) {
	var req primary.ClaimTicketRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	t, err := s.svc.Tickets.ClaimTicket(c.Request.Context(), scope(c), c.Param("id"), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) completeTicket(c *gin.Context) {
	t, err := s.svc.Tickets.CompleteTicket(c.Request.Context(), scope(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) updateTicketStatus(c *gin.Context) {
	var req primary.UpdateStatusRequest
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	t, err := s.svc.Tickets.UpdateTicketStatus(c.Request.Context(), scope(c), c.Param("id"), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) assignTicket(c *gin.Context) {
	var req primary.AssignTicketRequest
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	t, err := s.svc.Tickets.AssignTicket(c.Request.Context(), scope(c), c.Param("id"), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) unassignTicket(c *gin.Context) {
	t, err := s.svc.Tickets.UnassignTicket(c.Request.Context(), scope(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) reconcileTicket(c *gin.Context) {
	t, err := s.svc.Tickets.ReconcileTicket(c.Request.Context(), scope(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) listComments(c *gin.Context) {
	comments, err := s.svc.Tickets.ListComments(c.Request.Context(), scope(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list(comments))
}

func (s *Server) addComment(c *gin.Context) {
	var req struct {
		Body string `json:"body"`
	}
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	comment, err := s.svc.Tickets.AddComment(c.Request.Context(), scope(c), c.Param("id"), req.Body)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (s *Server) listActivity(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	activity, err := s.svc.Tickets.ListActivity(c.Request.Context(), scope(c), c.Param("id"), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list(activity))
}
