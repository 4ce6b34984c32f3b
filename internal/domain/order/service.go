package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/appie1702/storefront/internal/domain/catalog"
	"github.com/appie1702/storefront/internal/domain/coupon"
)

// ErrOpenOrderExists is returned by Repository.Create when the user
// already has an open order. Two concurrent first adds can both observe
// "no open order"; the store's uniqueness guarantee turns the loser's
// create into this error and the service retries against the winner's
// order.
var ErrOpenOrderExists = errors.New("open order already exists")

// Service implements the cart operations over a user's open order.
type Service struct {
	items   catalog.Repository
	orders  Repository
	coupons coupon.Repository
	now     func() time.Time
}

// NewService creates a cart Service with the required dependencies.
func NewService(items catalog.Repository, orders Repository, coupons coupon.Repository) *Service {
	return &Service{
		items:   items,
		orders:  orders,
		coupons: coupons,
		now:     time.Now,
	}
}

// Cart returns the user's open order, or ErrNoOpenOrder.
func (s *Service) Cart(ctx context.Context, userID uuid.UUID) (*Order, error) {
	return s.orders.Open(ctx, userID)
}

// AddItem puts one unit of the item into the user's cart. A missing open
// order is created lazily. When the cart already holds the item the call
// is a no-op and added is false; quantities only change through
// IncreaseQuantity.
func (s *Service) AddItem(ctx context.Context, userID uuid.UUID, slug string) (added bool, err error) {
	item, err := s.items.GetBySlug(ctx, slug)
	if err != nil {
		return false, err
	}

	o, err := s.orders.Open(ctx, userID)
	switch {
	case errors.Is(err, ErrNoOpenOrder):
		created, err := s.createWithLine(ctx, userID, item)
		if err != nil {
			return false, err
		}
		return created, nil
	case err != nil:
		return false, errors.Wrap(err, "load open order")
	}

	if o.LineFor(slug) != nil {
		return false, nil
	}

	if err := s.orders.AddLine(ctx, s.newLine(userID, o.ID, item)); err != nil {
		return false, errors.Wrap(err, "add line")
	}
	return true, nil
}

// createWithLine creates a fresh open order holding one unit of the item.
// When a concurrent request won the creation race, the new order is
// loaded instead and the line attached to it.
func (s *Service) createWithLine(ctx context.Context, userID uuid.UUID, item *catalog.Item) (bool, error) {
	o := &Order{
		ID:          uuid.New(),
		UserID:      userID,
		StartDate:   s.now(),
		OrderedDate: s.now(),
	}
	o.Lines = []Line{*s.newLine(userID, o.ID, item)}

	err := s.orders.Create(ctx, o)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, ErrOpenOrderExists) {
		return false, errors.Wrap(err, "create order")
	}

	winner, err := s.orders.Open(ctx, userID)
	if err != nil {
		return false, errors.Wrap(err, "load racing order")
	}
	if winner.LineFor(item.Slug) != nil {
		return false, nil
	}
	if err := s.orders.AddLine(ctx, s.newLine(userID, winner.ID, item)); err != nil {
		return false, errors.Wrap(err, "add line")
	}
	return true, nil
}

func (s *Service) newLine(userID, orderID uuid.UUID, item *catalog.Item) *Line {
	return &Line{
		ID:       uuid.New(),
		UserID:   userID,
		OrderID:  orderID,
		ItemID:   item.ID,
		Item:     *item,
		Quantity: 1,
	}
}

// RemoveItem deletes the item's line from the user's cart regardless of
// quantity. Returns ErrNoOpenOrder or ErrItemNotInCart when there is
// nothing to remove.
func (s *Service) RemoveItem(ctx context.Context, userID uuid.UUID, slug string) error {
	if _, err := s.items.GetBySlug(ctx, slug); err != nil {
		return err
	}
	o, err := s.orders.Open(ctx, userID)
	if err != nil {
		return err
	}
	line := o.LineFor(slug)
	if line == nil {
		return ErrItemNotInCart
	}
	if err := s.orders.DeleteLine(ctx, line.ID); err != nil {
		return errors.Wrap(err, "delete line")
	}
	return nil
}

// IncreaseQuantity bumps the item's line quantity by one.
func (s *Service) IncreaseQuantity(ctx context.Context, userID uuid.UUID, slug string) error {
	if _, err := s.items.GetBySlug(ctx, slug); err != nil {
		return err
	}
	o, err := s.orders.Open(ctx, userID)
	if err != nil {
		return err
	}
	line := o.LineFor(slug)
	if line == nil {
		return ErrItemNotInCart
	}
	if err := s.orders.SetLineQuantity(ctx, line.ID, line.Quantity+1); err != nil {
		return errors.Wrap(err, "set quantity")
	}
	return nil
}

// DecreaseQuantity lowers the item's line quantity by one; at quantity
// one the line is removed from the cart entirely. removed reports which
// of the two happened.
func (s *Service) DecreaseQuantity(ctx context.Context, userID uuid.UUID, slug string) (removed bool, err error) {
	if _, err := s.items.GetBySlug(ctx, slug); err != nil {
		return false, err
	}
	o, err := s.orders.Open(ctx, userID)
	if err != nil {
		return false, err
	}
	line := o.LineFor(slug)
	if line == nil {
		return false, ErrItemNotInCart
	}
	if line.Quantity > 1 {
		if err := s.orders.SetLineQuantity(ctx, line.ID, line.Quantity-1); err != nil {
			return false, errors.Wrap(err, "set quantity")
		}
		return false, nil
	}
	if err := s.orders.DeleteLine(ctx, line.ID); err != nil {
		return false, errors.Wrap(err, "delete line")
	}
	return true, nil
}

// ApplyCoupon attaches the coupon with the given code to the user's open
// order. Re-applying the already attached code returns
// ErrCouponAlreadyApplied.
func (s *Service) ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) error {
	o, err := s.orders.Open(ctx, userID)
	if err != nil {
		return err
	}
	c, err := s.coupons.ByCode(ctx, code)
	if err != nil {
		return err
	}
	if o.Coupon != nil && o.Coupon.Code == c.Code {
		return ErrCouponAlreadyApplied
	}
	if err := s.orders.AttachCoupon(ctx, o.ID, c.Code); err != nil {
		return errors.Wrap(err, "attach coupon")
	}
	return nil
}
