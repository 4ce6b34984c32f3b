package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"github.com/appie1702/storefront/internal/domain/user"
)

type accountResponse struct {
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Joined   time.Time `json:"joined"`
}

type bookAddressResponse struct {
	addressResponse
	Kind      string `json:"kind"`
	IsDefault bool   `json:"is_default"`
}

// account renders the authenticated user's profile.
func (h *Handler) account(c *gin.Context) {
	u, err := h.users.ByID(c.Request.Context(), currentUser(c))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			respondNotice(c, http.StatusNotFound, "This account does not exist.", "/login")
			return
		}
		respondInternal(c)
		return
	}
	c.JSON(http.StatusOK, accountResponse{
		Username: u.Username,
		Email:    u.Email,
		Joined:   u.CreatedAt,
	})
}

// listAddresses renders the authenticated user's address book.
func (h *Handler) listAddresses(c *gin.Context) {
	book, err := h.addresses.ByUser(c.Request.Context(), currentUser(c))
	if err != nil {
		respondInternal(c)
		return
	}

	out := make([]bookAddressResponse, 0, len(book))
	for _, a := range book {
		out = append(out, bookAddressResponse{
			addressResponse: *toAddressResponse(&a),
			Kind:            string(a.Kind),
			IsDefault:       a.IsDefault,
		})
	}
	c.JSON(http.StatusOK, gin.H{"addresses": out})
}
