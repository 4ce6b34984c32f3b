package checkout

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/appie1702/storefront/internal/domain/address"
	"github.com/appie1702/storefront/internal/domain/order"
)

// finalizeAttempts bounds reference-code regeneration on collision.
const finalizeAttempts = 5

// Service orchestrates checkout over a user's open order.
type Service struct {
	orders    order.Repository
	addresses address.Repository
	store     Store
	newCode   func() string
}

// NewService creates a checkout Service.
func NewService(orders order.Repository, addresses address.Repository, store Store) *Service {
	return &Service{
		orders:    orders,
		addresses: addresses,
		store:     store,
		newCode:   order.NewRefCode,
	}
}

// Begin is checkout phase one: it loads the open order and any default
// addresses for prefill. Returns order.ErrNoOpenOrder when the user has
// no cart.
func (s *Service) Begin(ctx context.Context, userID uuid.UUID) (*Form, error) {
	o, err := s.orders.Open(ctx, userID)
	if err != nil {
		return nil, err
	}

	form := &Form{Order: o}
	if a, err := s.addresses.Default(ctx, userID, address.KindShipping); err == nil {
		form.DefaultShipping = a
	} else if !errors.Is(err, address.ErrNoDefault) {
		return nil, errors.Wrap(err, "default shipping")
	}
	if a, err := s.addresses.Default(ctx, userID, address.KindBilling); err == nil {
		form.DefaultBilling = a
	} else if !errors.Is(err, address.ErrNoDefault) {
		return nil, errors.Wrap(err, "default billing")
	}
	return form, nil
}

// Submit is checkout phase two. It resolves the shipping address, the
// billing address, and the payment option against the open order, all
// inside one transaction: a validation failure at any stage persists
// nothing. For pay on delivery the order is finalized with a fresh
// reference code; for pay online the caller receives the amount to carry
// into the payment handoff.
func (s *Service) Submit(ctx context.Context, userID uuid.UUID, req Request) (*Result, error) {
	if req.PaymentOption != PayOnDelivery && req.PaymentOption != PayOnline {
		return nil, ErrInvalidPaymentOption
	}

	o, err := s.orders.Open(ctx, userID)
	if err != nil {
		return nil, err
	}

	var res Result
	err = s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		shipping, err := s.resolveShipping(ctx, tx, userID, req)
		if err != nil {
			return err
		}
		if err := tx.SetShippingAddress(ctx, o.ID, shipping.ID); err != nil {
			return errors.Wrap(err, "attach shipping address")
		}

		billing, err := s.resolveBilling(ctx, tx, userID, req, shipping)
		if err != nil {
			return err
		}
		if err := tx.SetBillingAddress(ctx, o.ID, billing.ID); err != nil {
			return errors.Wrap(err, "attach billing address")
		}

		if req.PaymentOption == PayOnline {
			res.AmountMinor = o.TotalMinorUnits()
			return nil
		}

		code, err := s.finalize(ctx, tx, o.ID, false)
		if err != nil {
			return err
		}
		res.Placed = true
		res.RefCode = code
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// resolveShipping picks the default shipping address or creates one from
// the manual form.
func (s *Service) resolveShipping(ctx context.Context, tx Tx, userID uuid.UUID, req Request) (*address.Address, error) {
	if req.UseDefaultShipping {
		a, err := tx.DefaultAddress(ctx, userID, address.KindShipping)
		if errors.Is(err, address.ErrNoDefault) {
			return nil, ErrNoDefaultShipping
		}
		if err != nil {
			return nil, errors.Wrap(err, "default shipping address")
		}
		return a, nil
	}

	if !req.Shipping.complete() {
		return nil, ErrIncompleteShipping
	}
	return s.createAddress(ctx, tx, userID, req.Shipping, address.KindShipping, req.SetDefaultShipping)
}

// resolveBilling applies the three billing strategies in priority order:
// clone of the shipping address, default billing address, manual entry.
func (s *Service) resolveBilling(ctx context.Context, tx Tx, userID uuid.UUID, req Request, shipping *address.Address) (*address.Address, error) {
	switch {
	case req.SameBillingAddress:
		// Clone the shipping row under a new identity, retagged billing.
		clone := &address.Address{
			ID:      uuid.New(),
			UserID:  userID,
			Line1:   shipping.Line1,
			Line2:   shipping.Line2,
			Country: shipping.Country,
			Zip:     shipping.Zip,
			Kind:    address.KindBilling,
		}
		if err := tx.CreateAddress(ctx, clone); err != nil {
			return nil, errors.Wrap(err, "clone shipping address")
		}
		return clone, nil

	case req.UseDefaultBilling:
		a, err := tx.DefaultAddress(ctx, userID, address.KindBilling)
		if errors.Is(err, address.ErrNoDefault) {
			return nil, ErrNoDefaultBilling
		}
		if err != nil {
			return nil, errors.Wrap(err, "default billing address")
		}
		return a, nil

	default:
		if !req.Billing.complete() {
			return nil, ErrIncompleteBilling
		}
		return s.createAddress(ctx, tx, userID, req.Billing, address.KindBilling, req.SetDefaultBilling)
	}
}

func (s *Service) createAddress(ctx context.Context, tx Tx, userID uuid.UUID, form AddressForm, kind address.Kind, setDefault bool) (*address.Address, error) {
	a := &address.Address{
		ID:        uuid.New(),
		UserID:    userID,
		Line1:     form.Line1,
		Line2:     form.Line2,
		Country:   form.Country,
		Zip:       form.Zip,
		Kind:      kind,
		IsDefault: setDefault,
	}
	if setDefault {
		if err := tx.ClearDefault(ctx, userID, kind); err != nil {
			return nil, errors.Wrap(err, "clear previous default")
		}
	}
	if err := tx.CreateAddress(ctx, a); err != nil {
		return nil, errors.Wrap(err, "create address")
	}
	return a, nil
}

// finalize flips the order to ordered with a fresh reference code,
// regenerating on the (improbable) collision.
func (s *Service) finalize(ctx context.Context, tx Tx, orderID uuid.UUID, paid bool) (string, error) {
	var lastErr error
	for range finalizeAttempts {
		code := s.newCode()
		err := tx.Finalize(ctx, orderID, code, paid)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, ErrRefCodeTaken) {
			return "", errors.Wrap(err, "finalize order")
		}
		lastErr = err
	}
	return "", errors.Wrap(lastErr, "finalize order: exhausted reference code attempts")
}

// HandoffOrder loads the open order for the payment handoff. The order
// must already carry a billing address from checkout; without one the
// user is bounced back with ErrNoBillingAddress.
func (s *Service) HandoffOrder(ctx context.Context, userID uuid.UUID) (*order.Order, error) {
	o, err := s.orders.Open(ctx, userID)
	if err != nil {
		return nil, err
	}
	if o.BillingAddrID == nil {
		return nil, ErrNoBillingAddress
	}
	return o, nil
}

// ConfirmPayment handles the payment provider's success callback: the
// user's open order is finalized and marked paid. A missing open order
// means the callback already ran (or the order was finalized another
// way); that case is an idempotent no-op with alreadyFinal true.
func (s *Service) ConfirmPayment(ctx context.Context, userID uuid.UUID) (alreadyFinal bool, err error) {
	o, err := s.orders.Open(ctx, userID)
	if errors.Is(err, order.ErrNoOpenOrder) {
		return true, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "load open order")
	}

	err = s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		_, err := s.finalize(ctx, tx, o.ID, true)
		return err
	})
	if err != nil {
		return false, err
	}
	return false, nil
}
