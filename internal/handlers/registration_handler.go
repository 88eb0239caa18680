package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/terpspark/terpspark-api/internal/middleware/auth"
	"github.com/terpspark/terpspark-api/internal/response"
	"github.com/terpspark/terpspark-api/internal/services"
)

// RegistrationHandler exposes registration operations over HTTP
type RegistrationHandler struct {
	registrations *services.RegistrationService
}

func NewRegistrationHandler(registrations *services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

// Create handles POST /api/registrations
func (h *RegistrationHandler) Create(c *gin.Context) {
	var req services.CreateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request payload: "+err.Error())
		return
	}

	reg, err := h.registrations.Create(auth.UserID(c), req)
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Registration confirmed", reg)
}

// Cancel handles DELETE /api/registrations/:id
func (h *RegistrationHandler) Cancel(c *gin.Context) {
	reg, err := h.registrations.Cancel(c.Param("id"), auth.UserID(c))
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Registration cancelled", reg)
}

// CheckIn handles POST /api/registrations/check-in
func (h *RegistrationHandler) CheckIn(c *gin.Context) {
	var req services.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request payload: "+err.Error())
		return
	}

	reg, err := h.registrations.CheckIn(auth.UserID(c), req)
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Attendee checked in", reg)
}

// List handles GET /api/registrations with optional status and
// include_past query filters.
func (h *RegistrationHandler) List(c *gin.Context) {
	includePast, _ := strconv.ParseBool(c.DefaultQuery("include_past", "false"))

	regs, err := h.registrations.GetUserRegistrations(auth.UserID(c), c.Query("status"), includePast)
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "", gin.H{
		"registrations": regs,
		"count":         len(regs),
	})
}

// Get handles GET /api/registrations/:id
func (h *RegistrationHandler) Get(c *gin.Context) {
	reg, err := h.registrations.GetByID(c.Param("id"), auth.UserID(c))
	if err != nil {
		response.DomainError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "", reg)
}
