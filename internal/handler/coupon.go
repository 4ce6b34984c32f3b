package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"github.com/appie1702/storefront/internal/domain/coupon"
	"github.com/appie1702/storefront/internal/domain/order"
)

type applyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// applyCoupon attaches a coupon code to the user's open order.
func (h *Handler) applyCoupon(c *gin.Context) {
	var req applyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondNotice(c, http.StatusBadRequest, "This coupon does not exist.", "/checkout")
		return
	}

	err := h.cart.ApplyCoupon(c.Request.Context(), currentUser(c), req.Code)
	switch {
	case err == nil:
		respondNotice(c, http.StatusOK, "Successfully added coupon.", "/checkout")
	case errors.Is(err, order.ErrNoOpenOrder):
		respondNotice(c, http.StatusOK, "You do not have an active order.", "/checkout")
	case errors.Is(err, coupon.ErrNotFound):
		respondNotice(c, http.StatusOK, "This coupon does not exist.", "/checkout")
	case errors.Is(err, order.ErrCouponAlreadyApplied):
		respondNotice(c, http.StatusOK, "This coupon code has already been applied.", "/checkout")
	default:
		respondInternal(c)
	}
}
