package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"github.com/appie1702/storefront/internal/domain/catalog"
	"github.com/appie1702/storefront/internal/domain/order"
)

type cartLineResponse struct {
	Item      itemResponse `json:"item"`
	Quantity  int          `json:"quantity"`
	UnitPrice string       `json:"unit_price"`
	Total     string       `json:"total"`
}

type cartResponse struct {
	OrderID string             `json:"order_id"`
	Lines   []cartLineResponse `json:"lines"`
	Coupon  *couponResponse    `json:"coupon,omitempty"`
	Total   string             `json:"total"`
}

type couponResponse struct {
	Code   string `json:"code"`
	Amount string `json:"amount"`
}

func toCartResponse(o *order.Order) cartResponse {
	resp := cartResponse{
		OrderID: o.ID.String(),
		Lines:   make([]cartLineResponse, len(o.Lines)),
		Total:   o.Total().StringFixed(2),
	}
	for i, l := range o.Lines {
		resp.Lines[i] = cartLineResponse{
			Item:      toItemResponse(l.Item),
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice().StringFixed(2),
			Total:     l.Total().StringFixed(2),
		}
	}
	if o.Coupon != nil {
		resp.Coupon = &couponResponse{
			Code:   o.Coupon.Code,
			Amount: o.Coupon.Amount.StringFixed(2),
		}
	}
	return resp
}

// cartView renders the open order, or an empty-cart notice pointing home.
func (h *Handler) cartView(c *gin.Context) {
	o, err := h.cart.Cart(c.Request.Context(), currentUser(c))
	if err != nil {
		if errors.Is(err, order.ErrNoOpenOrder) {
			respondNotice(c, http.StatusOK, "You have no items in your cart.", "/")
			return
		}
		respondInternal(c)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(o))
}

// addToCart puts one unit of the item into the cart, creating the open
// order when needed.
func (h *Handler) addToCart(c *gin.Context) {
	h.addItem(c, "/cart")
}

// buyNow adds the item and sends the user straight to checkout.
func (h *Handler) buyNow(c *gin.Context) {
	h.addItem(c, "/checkout")
}

func (h *Handler) addItem(c *gin.Context, redirect string) {
	added, err := h.cart.AddItem(c.Request.Context(), currentUser(c), c.Param("slug"))
	if err != nil {
		h.respondCartError(c, err)
		return
	}
	if !added {
		respondNotice(c, http.StatusOK, "This item is already in your cart.", redirect)
		return
	}
	respondNotice(c, http.StatusOK, "The item has been added to your cart.", redirect)
}

// removeFromCart deletes the item's line regardless of quantity.
func (h *Handler) removeFromCart(c *gin.Context) {
	err := h.cart.RemoveItem(c.Request.Context(), currentUser(c), c.Param("slug"))
	if err != nil {
		h.respondCartError(c, err)
		return
	}
	respondNotice(c, http.StatusOK, "This item has been removed from your cart.", "/cart")
}

// increaseQuantity bumps the line quantity by one.
func (h *Handler) increaseQuantity(c *gin.Context) {
	err := h.cart.IncreaseQuantity(c.Request.Context(), currentUser(c), c.Param("slug"))
	if err != nil {
		h.respondCartError(c, err)
		return
	}
	respondNotice(c, http.StatusOK, "This item's quantity has been updated.", "/cart")
}

// decreaseQuantity lowers the line quantity by one, removing the line at
// quantity one.
func (h *Handler) decreaseQuantity(c *gin.Context) {
	removed, err := h.cart.DecreaseQuantity(c.Request.Context(), currentUser(c), c.Param("slug"))
	if err != nil {
		h.respondCartError(c, err)
		return
	}
	if removed {
		respondNotice(c, http.StatusOK, "This item has been removed from your cart.", "/cart")
		return
	}
	respondNotice(c, http.StatusOK, "This item's quantity has been updated.", "/cart")
}

// respondCartError maps cart domain errors to their notices. Absence of
// an open order or of the item in the cart is a normal outcome with its
// own message, not a failure.
func (h *Handler) respondCartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		respondNotice(c, http.StatusNotFound, "This item does not exist.", "/")
	case errors.Is(err, order.ErrNoOpenOrder):
		respondNotice(c, http.StatusOK, "You don't have any items in your cart.", "/cart")
	case errors.Is(err, order.ErrItemNotInCart):
		respondNotice(c, http.StatusOK, "This item was not in your cart.", "/cart")
	default:
		respondInternal(c)
	}
}
