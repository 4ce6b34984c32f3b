package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/appie1702/storefront/internal/domain/catalog"
	"github.com/appie1702/storefront/internal/domain/coupon"
)

var (
	// ErrNoOpenOrder is returned when a user has no open cart. Callers
	// treat this as a normal state with its own user-facing notice, never
	// as a hard failure.
	ErrNoOpenOrder = errors.New("no open order")
	// ErrItemNotInCart is returned when a cart mutation targets an item
	// the open order does not contain.
	ErrItemNotInCart = errors.New("item not in cart")
	// ErrCouponAlreadyApplied is returned when the open order already
	// carries the submitted coupon code.
	ErrCouponAlreadyApplied = errors.New("coupon already applied")
)

// Line is one entry of a cart or finalized order: an item plus quantity.
// A line belongs to exactly one order.
type Line struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	OrderID  uuid.UUID
	ItemID   uuid.UUID
	Item     catalog.Item
	Quantity int
	Ordered  bool
}

// UnitPrice is the price one unit of the line's item costs: the item's
// discount price when set, its regular price otherwise.
func (l Line) UnitPrice() decimal.Decimal {
	return l.Item.FinalPrice()
}

// Total is quantity times unit price.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is a user's order. While Ordered is false it acts as the open
// shopping cart; a user has at most one such order at any time. Ordered
// flips to true at checkout finalization and never back.
type Order struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Ordered         bool
	StartDate       time.Time
	OrderedDate     time.Time
	Paid            bool
	BeingDelivered  bool
	Delivered       bool
	RefundRequested bool
	RefundGranted   bool
	RefCode         string
	ShippingAddrID  *uuid.UUID
	BillingAddrID   *uuid.UUID
	Coupon          *coupon.Coupon
	Lines           []Line
}

// LineFor returns the line holding the item with the given slug, or nil.
func (o *Order) LineFor(slug string) *Line {
	for i := range o.Lines {
		if o.Lines[i].Item.Slug == slug {
			return &o.Lines[i]
		}
	}
	return nil
}

// Total sums the final price of every line and subtracts the attached
// coupon's amount, if any. The result is not clamped: a coupon larger
// than the subtotal yields a negative total.
func (o *Order) Total() decimal.Decimal {
	t := decimal.Zero
	for _, l := range o.Lines {
		t = t.Add(l.Total())
	}
	if o.Coupon != nil {
		t = t.Sub(o.Coupon.Amount)
	}
	return t
}

// TotalMinorUnits converts the order total to an integer amount of minor
// currency units (total x 100, truncated), the form payment providers
// expect.
func (o *Order) TotalMinorUnits() int64 {
	return o.Total().Mul(decimal.NewFromInt(100)).IntPart()
}

// Repository defines persistence operations for orders and their lines.
type Repository interface {
	// Open returns the user's open order with lines and coupon hydrated,
	// or ErrNoOpenOrder.
	Open(ctx context.Context, userID uuid.UUID) (*Order, error)
	// ByRefCode returns the order carrying the given reference code, or
	// ErrNoOpenOrder-distinct lookup failure ErrNotFound.
	ByRefCode(ctx context.Context, refCode string) (*Order, error)
	// Create persists a new order together with its initial lines.
	Create(ctx context.Context, o *Order) error
	AddLine(ctx context.Context, l *Line) error
	SetLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error
	DeleteLine(ctx context.Context, lineID uuid.UUID) error
	// AttachCoupon links the coupon code to the order.
	AttachCoupon(ctx context.Context, orderID uuid.UUID, code string) error
	// MarkRefundRequested flips the order's refund_requested flag.
	MarkRefundRequested(ctx context.Context, orderID uuid.UUID) error
}

// ErrNotFound is returned by reference-code lookups that match no order.
var ErrNotFound = errors.New("order not found")
