// Package checkout implements the two-phase checkout over a user's open
// order: phase one surfaces default addresses for prefill, phase two
// validates the submitted address and payment choices and either
// finalizes the order (pay on delivery) or hands off to the payment
// gateway. The whole submission runs in a single transaction; a failed
// stage rolls back every address write of the same submission.
package checkout

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/appie1702/storefront/internal/domain/address"
	"github.com/appie1702/storefront/internal/domain/order"
)

// PaymentOption selects how the order is paid.
type PaymentOption string

const (
	PayOnDelivery PaymentOption = "pay_on_delivery"
	PayOnline     PaymentOption = "pay_online"
)

var (
	// ErrNoDefaultShipping is returned when use_default_shipping was
	// requested but no default shipping address is on file.
	ErrNoDefaultShipping = errors.New("no default shipping address")
	// ErrNoDefaultBilling is the billing counterpart of ErrNoDefaultShipping.
	ErrNoDefaultBilling = errors.New("no default billing address")
	// ErrIncompleteShipping is returned when a manually entered shipping
	// address leaves any of its four fields blank.
	ErrIncompleteShipping = errors.New("incomplete shipping address")
	// ErrIncompleteBilling is the billing counterpart of ErrIncompleteShipping.
	ErrIncompleteBilling = errors.New("incomplete billing address")
	// ErrInvalidPaymentOption is returned for an unknown payment option.
	ErrInvalidPaymentOption = errors.New("invalid payment option")
	// ErrNoBillingAddress is returned by the payment handoff when the open
	// order has no billing address attached yet.
	ErrNoBillingAddress = errors.New("no billing address on order")
	// ErrRefCodeTaken is returned by Tx.Finalize when the generated
	// reference code collides with an existing order; the service
	// regenerates and retries.
	ErrRefCodeTaken = errors.New("reference code already taken")
)

// AddressForm holds one manually entered address.
type AddressForm struct {
	Line1   string `json:"line1"`
	Line2   string `json:"line2"`
	Country string `json:"country"`
	Zip     string `json:"zip"`
}

func (f AddressForm) complete() bool {
	return f.Line1 != "" && f.Line2 != "" && f.Country != "" && f.Zip != ""
}

// Request is the checkout submission payload. The shipping strategies
// (use_default_shipping vs. manual entry) are mutually exclusive, as are
// the three billing strategies, evaluated in the order: same as
// shipping, default billing, manual entry.
type Request struct {
	UseDefaultShipping bool        `json:"use_default_shipping"`
	SetDefaultShipping bool        `json:"set_default_shipping"`
	Shipping           AddressForm `json:"shipping"`

	SameBillingAddress bool        `json:"same_billing_address"`
	UseDefaultBilling  bool        `json:"use_default_billing"`
	SetDefaultBilling  bool        `json:"set_default_billing"`
	Billing            AddressForm `json:"billing"`

	PaymentOption PaymentOption `json:"payment_option"`
}

// Result is the outcome of a successful checkout submission.
type Result struct {
	// Placed is true when the order was finalized on the spot (pay on
	// delivery); RefCode then carries its reference code.
	Placed  bool
	RefCode string
	// AmountMinor is set for pay-online checkouts: the order total in
	// integer minor currency units for the gateway handoff.
	AmountMinor int64
}

// Form is the phase-one view: the open order plus any default addresses
// available for prefill.
type Form struct {
	Order           *order.Order
	DefaultShipping *address.Address
	DefaultBilling  *address.Address
}

// Tx exposes the mutations a checkout submission performs atomically.
type Tx interface {
	DefaultAddress(ctx context.Context, userID uuid.UUID, kind address.Kind) (*address.Address, error)
	CreateAddress(ctx context.Context, a *address.Address) error
	// ClearDefault drops the default flag from the user's current default
	// address of the given kind, if any.
	ClearDefault(ctx context.Context, userID uuid.UUID, kind address.Kind) error
	SetShippingAddress(ctx context.Context, orderID, addrID uuid.UUID) error
	SetBillingAddress(ctx context.Context, orderID, addrID uuid.UUID) error
	// Finalize marks the order as ordered (and paid, when paid is true),
	// stores the reference code, and flips the order's own lines to
	// ordered. Returns ErrRefCodeTaken on a reference code collision.
	Finalize(ctx context.Context, orderID uuid.UUID, refCode string, paid bool) error
}

// Store runs checkout mutations in one transaction.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
