// Package handler exposes the storefront over HTTP. Handlers translate
// between the JSON surface and the domain services; every "redirect plus
// notice" outcome of the flows is rendered as a JSON envelope carrying
// the user-facing message and the redirect target.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/appie1702/storefront/internal/auth"
	"github.com/appie1702/storefront/internal/domain/address"
	"github.com/appie1702/storefront/internal/domain/catalog"
	"github.com/appie1702/storefront/internal/domain/checkout"
	"github.com/appie1702/storefront/internal/domain/order"
	"github.com/appie1702/storefront/internal/domain/refund"
	"github.com/appie1702/storefront/internal/domain/user"
	"github.com/appie1702/storefront/internal/payment"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// Currency is the ISO code sent to the payment provider.
	Currency string
	// PageSize is the catalog page size.
	PageSize int
}

// Handler wires the HTTP routes to the domain services.
type Handler struct {
	cfg       Config
	items     catalog.Repository
	users     user.Repository
	addresses address.Repository
	cart      *order.Service
	checkout  *checkout.Service
	refunds   *refund.Service
	auth      *auth.Manager
	gateway   payment.Gateway
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	items catalog.Repository,
	users user.Repository,
	addresses address.Repository,
	cart *order.Service,
	co *checkout.Service,
	refunds *refund.Service,
	authManager *auth.Manager,
	gateway payment.Gateway,
) *Handler {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	return &Handler{
		cfg:       cfg,
		items:     items,
		users:     users,
		addresses: addresses,
		cart:      cart,
		checkout:  co,
		refunds:   refunds,
		auth:      authManager,
		gateway:   gateway,
	}
}

// Router builds the gin engine with all storefront routes registered.
// gin runs in release mode; logging and recovery come from the outer
// middleware chain.
func (h *Handler) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.GET("/items", h.listItems)
	r.GET("/items/:slug", h.getItem)

	r.POST("/signup", h.signup)
	r.POST("/login", h.login)

	r.POST("/refunds", h.requestRefund)

	authed := r.Group("", h.requireUser)
	authed.GET("/account", h.account)
	authed.GET("/addresses", h.listAddresses)
	authed.GET("/cart", h.cartView)
	authed.POST("/cart/:slug", h.addToCart)
	authed.DELETE("/cart/:slug", h.removeFromCart)
	authed.POST("/cart/:slug/increase", h.increaseQuantity)
	authed.POST("/cart/:slug/decrease", h.decreaseQuantity)
	authed.POST("/cart/:slug/buy-now", h.buyNow)
	authed.GET("/checkout", h.checkoutForm)
	authed.POST("/checkout", h.submitCheckout)
	authed.POST("/coupons/apply", h.applyCoupon)
	authed.GET("/payment", h.paymentHandoff)
	authed.POST("/payment", h.createPaymentIntent)
	authed.POST("/payment/success", h.paymentSuccess)

	return r
}

// notice is the JSON envelope for "redirect with a message" outcomes.
type notice struct {
	Message  string `json:"message,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func respondNotice(c *gin.Context, status int, message, redirect string) {
	c.JSON(status, notice{Message: message, Redirect: redirect})
}

func respondInternal(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, notice{Message: "Something went wrong. Please try again."})
}
