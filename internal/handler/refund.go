package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"github.com/appie1702/storefront/internal/domain/order"
)

type refundRequest struct {
	RefCode string `json:"ref_code" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Reason  string `json:"reason" binding:"required"`
}

// requestRefund takes a refund request against a placed order. The
// reference code is matched exactly; a miss does not reveal whether the
// code or the order is the problem.
func (h *Handler) requestRefund(c *gin.Context) {
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondNotice(c, http.StatusBadRequest, "Please fill in all refund request fields.", "/request-refund")
		return
	}

	err := h.refunds.Request(c.Request.Context(), req.RefCode, req.Email, req.Reason)
	switch {
	case err == nil:
		respondNotice(c, http.StatusOK, "Your request was received. We will be in touch with you shortly!", "/request-refund")
	case errors.Is(err, order.ErrNotFound):
		respondNotice(c, http.StatusNotFound, "This order does not exist.", "/request-refund")
	default:
		respondInternal(c)
	}
}
