package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"github.com/appie1702/storefront/internal/domain/address"
	"github.com/appie1702/storefront/internal/domain/checkout"
	"github.com/appie1702/storefront/internal/domain/order"
)

type addressResponse struct {
	ID      string `json:"id"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2"`
	Country string `json:"country"`
	Zip     string `json:"zip"`
}

func toAddressResponse(a *address.Address) *addressResponse {
	if a == nil {
		return nil
	}
	return &addressResponse{
		ID:      a.ID.String(),
		Line1:   a.Line1,
		Line2:   a.Line2,
		Country: a.Country,
		Zip:     a.Zip,
	}
}

type checkoutFormResponse struct {
	Order           cartResponse     `json:"order"`
	DefaultShipping *addressResponse `json:"default_shipping,omitempty"`
	DefaultBilling  *addressResponse `json:"default_billing,omitempty"`
}

type checkoutResultResponse struct {
	Message     string `json:"message"`
	Redirect    string `json:"redirect"`
	RefCode     string `json:"ref_code,omitempty"`
	AmountMinor int64  `json:"amount_minor,omitempty"`
}

// checkoutForm is checkout phase one: the open order and any default
// addresses available for prefill.
func (h *Handler) checkoutForm(c *gin.Context) {
	form, err := h.checkout.Begin(c.Request.Context(), currentUser(c))
	if err != nil {
		if errors.Is(err, order.ErrNoOpenOrder) {
			respondNotice(c, http.StatusOK, "You do not have an active order.", "/")
			return
		}
		respondInternal(c)
		return
	}
	c.JSON(http.StatusOK, checkoutFormResponse{
		Order:           toCartResponse(form.Order),
		DefaultShipping: toAddressResponse(form.DefaultShipping),
		DefaultBilling:  toAddressResponse(form.DefaultBilling),
	})
}

// submitCheckout is checkout phase two. Validation failures come back as
// notices that keep the user on the checkout page; a pay-on-delivery
// submission places the order, a pay-online one redirects into payment.
func (h *Handler) submitCheckout(c *gin.Context) {
	var req checkout.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respondNotice(c, http.StatusBadRequest, "Failed checkout.", "/checkout")
		return
	}

	res, err := h.checkout.Submit(c.Request.Context(), currentUser(c), req)
	if err != nil {
		h.respondCheckoutError(c, err)
		return
	}

	if res.Placed {
		c.JSON(http.StatusOK, checkoutResultResponse{
			Message:  "Your order was successful!",
			Redirect: "/",
			RefCode:  res.RefCode,
		})
		return
	}
	c.JSON(http.StatusOK, checkoutResultResponse{
		Message:     "Please complete your payment.",
		Redirect:    "/payment",
		AmountMinor: res.AmountMinor,
	})
}

func (h *Handler) respondCheckoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrNoOpenOrder):
		respondNotice(c, http.StatusOK, "You do not have an active order.", "/")
	case errors.Is(err, checkout.ErrNoDefaultShipping):
		respondNotice(c, http.StatusOK, "No default shipping address available.", "/checkout")
	case errors.Is(err, checkout.ErrNoDefaultBilling):
		respondNotice(c, http.StatusOK, "No default billing address available.", "/checkout")
	case errors.Is(err, checkout.ErrIncompleteShipping):
		respondNotice(c, http.StatusOK, "Please fill in the required shipping address fields.", "/checkout")
	case errors.Is(err, checkout.ErrIncompleteBilling):
		respondNotice(c, http.StatusOK, "Please fill in the required billing address fields.", "/checkout")
	case errors.Is(err, checkout.ErrInvalidPaymentOption):
		respondNotice(c, http.StatusOK, "Invalid payment option selected.", "/checkout")
	default:
		respondInternal(c)
	}
}
