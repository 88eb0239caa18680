package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/terpspark/terpspark-api/internal/domain/common"
	"github.com/terpspark/terpspark-api/internal/domain/participant"
	"github.com/terpspark/terpspark-api/internal/middleware/auth"
	"github.com/terpspark/terpspark-api/internal/response"
	"github.com/terpspark/terpspark-api/internal/storage/postgres"
	"github.com/terpspark/terpspark-api/internal/validation"
)

// AuthHandler handles account registration and login
type AuthHandler struct {
	users     postgres.UserRepository
	jwtSecret string
}

func NewAuthHandler(users postgres.UserRepository, jwtSecret string) *AuthHandler {
	return &AuthHandler{users: users, jwtSecret: jwtSecret}
}

type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Signup handles POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request payload: "+err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := validation.ValidateEmail(email); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if existing, err := h.users.GetByEmail(email); err == nil && existing != nil {
		response.DomainError(c, common.Conflict("an account with this email already exists"))
		return
	}

	user, err := participant.NewUser(req.Name, email, req.Password)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to create account")
		return
	}

	if err := h.users.Create(user); err != nil {
		response.DomainError(c, err)
		return
	}

	token, err := auth.IssueToken(h.jwtSecret, user)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to issue token")
		return
	}

	response.Success(c, http.StatusCreated, "Account created", gin.H{
		"user":  user,
		"token": token,
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request payload: "+err.Error())
		return
	}

	user, err := h.users.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil || !user.CheckPassword(req.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	if !user.IsActive {
		response.Unauthorized(c, "account is disabled")
		return
	}

	token, err := auth.IssueToken(h.jwtSecret, user)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to issue token")
		return
	}

	response.Success(c, http.StatusOK, "Logged in", gin.H{
		"user":  user,
		"token": token,
	})
}
