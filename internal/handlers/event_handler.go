package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/terpspark/terpspark-api/internal/middleware/auth"
	"github.com/terpspark/terpspark-api/internal/response"
	"github.com/terpspark/terpspark-api/internal/services"
)

// EventHandler exposes event lifecycle operations over HTTP
type EventHandler struct {
	events *services.EventService
}

func NewEventHandler(events *services.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// Create handles POST /api/events
func (h *EventHandler) Create(c *gin.Context) {
	var req services.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request payload: "+err.Error())
		return
	}

	ev, err := h.events.Create(auth.UserID(c), req)
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Event created", ev)
}

// Publish handles POST /api/events/:id/publish
func (h *EventHandler) Publish(c *gin.Context) {
	ev, err := h.events.Publish(c.Param("id"), auth.UserID(c))
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Event published", ev)
}

// Cancel handles POST /api/events/:id/cancel
func (h *EventHandler) Cancel(c *gin.Context) {
	ev, err := h.events.CancelEvent(c.Param("id"), auth.UserID(c))
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Event cancelled", ev)
}

// List handles GET /api/events, published events only
func (h *EventHandler) List(c *gin.Context) {
	events, err := h.events.GetAllPublished()
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "", gin.H{
		"events": events,
		"count":  len(events),
	})
}

// Get handles GET /api/events/:id
func (h *EventHandler) Get(c *gin.Context) {
	ev, err := h.events.GetByID(c.Param("id"))
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "", ev)
}

// UploadImage handles POST /api/events/:id/image
func (h *EventHandler) UploadImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		response.BadRequest(c, "no image file provided")
		return
	}
	defer file.Close()

	ev, err := h.events.UploadImage(
		c.Request.Context(),
		c.Param("id"),
		auth.UserID(c),
		header.Filename,
		header.Header.Get("Content-Type"),
		header.Size,
		file,
	)
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Event image uploaded", ev)
}
