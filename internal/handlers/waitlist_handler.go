package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/terpspark/terpspark-api/internal/middleware/auth"
	"github.com/terpspark/terpspark-api/internal/response"
	"github.com/terpspark/terpspark-api/internal/services"
)

// WaitlistHandler exposes waitlist operations over HTTP
type WaitlistHandler struct {
	waitlist *services.WaitlistService
}

func NewWaitlistHandler(waitlist *services.WaitlistService) *WaitlistHandler {
	return &WaitlistHandler{waitlist: waitlist}
}

// Join handles POST /api/waitlist
func (h *WaitlistHandler) Join(c *gin.Context) {
	var req services.JoinWaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request payload: "+err.Error())
		return
	}

	entry, err := h.waitlist.Join(auth.UserID(c), req)
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Added to waitlist", entry)
}

// Leave handles DELETE /api/waitlist/:id
func (h *WaitlistHandler) Leave(c *gin.Context) {
	if err := h.waitlist.Leave(c.Param("id"), auth.UserID(c)); err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Removed from waitlist", nil)
}

// List handles GET /api/waitlist, the caller's own waitlist entries
func (h *WaitlistHandler) List(c *gin.Context) {
	entries, err := h.waitlist.GetUserWaitlist(auth.UserID(c))
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "", gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

// EventWaitlist handles GET /api/events/:id/waitlist, the FIFO view for
// organizers.
func (h *WaitlistHandler) EventWaitlist(c *gin.Context) {
	entries, err := h.waitlist.List(c.Param("id"))
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "", gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}
