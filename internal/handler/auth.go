package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/appie1702/storefront/internal/auth"
	"github.com/appie1702/storefront/internal/domain/user"
)

type signupRequest struct {
	Username string `json:"username" binding:"required,min=5,max=150"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Message  string `json:"message"`
	Redirect string `json:"redirect"`
}

// signup registers a new user account.
func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondNotice(c, http.StatusBadRequest, "Please fill in a valid username, email and password.", "/signup")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondInternal(c)
		return
	}

	u := &user.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := h.users.Create(c.Request.Context(), u); err != nil {
		if errors.Is(err, user.ErrUsernameTaken) {
			respondNotice(c, http.StatusConflict, "This username is already taken.", "/signup")
			return
		}
		respondInternal(c)
		return
	}

	respondNotice(c, http.StatusCreated, "Account created. Please log in.", "/login")
}

// login verifies credentials and issues a session token.
func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondNotice(c, http.StatusBadRequest, "Username and password are required.", "/login")
		return
	}

	u, err := h.users.ByUsername(c.Request.Context(), req.Username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			respondNotice(c, http.StatusUnauthorized, "Invalid username or password.", "/login")
			return
		}
		respondInternal(c)
		return
	}
	if err := auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
		respondNotice(c, http.StatusUnauthorized, "Invalid username or password.", "/login")
		return
	}

	token, err := h.auth.IssueToken(u.ID)
	if err != nil {
		respondInternal(c)
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Token:    token,
		Message:  "You are successfully logged in!",
		Redirect: "/",
	})
}
