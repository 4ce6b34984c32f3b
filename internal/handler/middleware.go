package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// userIDKey is the gin context key the authenticated user ID is stored
// under.
const userIDKey = "storefront.userID"

// requireUser gates a route behind authentication: it verifies the
// bearer token and stores the user ID in the request context. Requests
// without a valid token are rejected with 401.
func (h *Handler) requireUser(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, notice{
			Message:  "Please log in to continue.",
			Redirect: "/login",
		})
		return
	}

	userID, err := h.auth.VerifyToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, notice{
			Message:  "Please log in to continue.",
			Redirect: "/login",
		})
		return
	}

	c.Set(userIDKey, userID)
	c.Next()
}

// currentUser returns the authenticated user ID stored by requireUser.
func currentUser(c *gin.Context) uuid.UUID {
	id, _ := c.Get(userIDKey)
	userID, _ := id.(uuid.UUID)
	return userID
}
