package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/appie1702/storefront/internal/domain/checkout"
	"github.com/appie1702/storefront/internal/domain/order"
	"github.com/appie1702/storefront/internal/payment"
)

type paymentHandoffResponse struct {
	OrderID     string `json:"order_id"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
}

type paymentIntentResponse struct {
	IntentRef   string `json:"intent_ref"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
}

// paymentHandoff shows the amount due for the open order. An order that
// never went through checkout has no billing address and is bounced back.
func (h *Handler) paymentHandoff(c *gin.Context) {
	o, err := h.checkout.HandoffOrder(c.Request.Context(), currentUser(c))
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNoOpenOrder):
			respondNotice(c, http.StatusOK, "You do not have an active order.", "/")
		case errors.Is(err, checkout.ErrNoBillingAddress):
			respondNotice(c, http.StatusOK, "You have not added a billing address.", "/checkout")
		default:
			respondInternal(c)
		}
		return
	}
	c.JSON(http.StatusOK, paymentHandoffResponse{
		OrderID:     o.ID.String(),
		AmountMinor: o.TotalMinorUnits(),
		Currency:    h.cfg.Currency,
	})
}

// createPaymentIntent registers the open order's amount with the payment
// provider and returns the provider reference the client needs to
// collect the payment.
func (h *Handler) createPaymentIntent(c *gin.Context) {
	ctx := c.Request.Context()
	o, err := h.checkout.HandoffOrder(ctx, currentUser(c))
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNoOpenOrder):
			respondNotice(c, http.StatusOK, "You do not have an active order.", "/")
		case errors.Is(err, checkout.ErrNoBillingAddress):
			respondNotice(c, http.StatusOK, "You have not added a billing address.", "/checkout")
		default:
			respondInternal(c)
		}
		return
	}

	amount := o.TotalMinorUnits()
	ref, err := h.gateway.CreateIntent(ctx, payment.Intent{
		AmountMinor: amount,
		Currency:    h.cfg.Currency,
		Receipt:     o.ID.String(),
	})
	if err != nil {
		zctx.From(ctx).Error("Create payment intent",
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
		respondNotice(c, http.StatusBadGateway, "Payment could not be started. Please try again.", "/payment")
		return
	}

	c.JSON(http.StatusOK, paymentIntentResponse{
		IntentRef:   ref,
		AmountMinor: amount,
		Currency:    h.cfg.Currency,
	})
}

// paymentSuccess is the provider's success callback relayed by the
// client. Finalization failures after a captured payment are logged and
// reported softly: the charge went through even if our bookkeeping
// lagged, so the user is not shown a hard error.
func (h *Handler) paymentSuccess(c *gin.Context) {
	ctx := c.Request.Context()
	alreadyFinal, err := h.checkout.ConfirmPayment(ctx, currentUser(c))
	if err != nil {
		zctx.From(ctx).Error("Confirm payment", zap.Error(err))
		respondNotice(c, http.StatusOK,
			"Some error occurred. But don't worry, the transaction was likely successful.", "/")
		return
	}
	if alreadyFinal {
		zctx.From(ctx).Info("Payment callback for already finalized order",
			zap.Stringer("user_id", currentUser(c)))
	}
	respondNotice(c, http.StatusOK, "Your order was successful!", "/")
}
