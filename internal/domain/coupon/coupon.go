// Package coupon holds the promo code registry: a coupon maps a code to a
// fixed discount amount taken off the order total. Codes carry no expiry,
// usage count, or per-user limit.
package coupon

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no coupon exists for a code.
var ErrNotFound = errors.New("coupon not found")

// Coupon maps a promo code to a fixed discount amount.
type Coupon struct {
	Code   string
	Amount decimal.Decimal
}

// Repository provides lookup and creation of coupons.
type Repository interface {
	// ByCode returns the coupon with the given code, or ErrNotFound.
	ByCode(ctx context.Context, code string) (*Coupon, error)
	Create(ctx context.Context, c *Coupon) error
}
