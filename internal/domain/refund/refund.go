// Package refund implements the refund-request intake: a customer
// submits an order reference code, a contact email, and a reason; a
// matching order is flagged and a refund record stored for operator
// review. Acceptance is a separate administrative action.
package refund

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/appie1702/storefront/internal/domain/order"
)

// Refund is a customer's refund request against a finalized order.
type Refund struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Reason    string
	Email     string
	Accepted  bool
	CreatedAt time.Time
}

// Repository defines persistence for refund records.
type Repository interface {
	Create(ctx context.Context, r *Refund) error
}

// Service accepts refund requests.
type Service struct {
	orders  order.Repository
	refunds Repository
}

// NewService creates a refund intake Service.
func NewService(orders order.Repository, refunds Repository) *Service {
	return &Service{orders: orders, refunds: refunds}
}

// Request looks up the order by its exact reference code, flags it as
// refund-requested, and records the request. A miss returns
// order.ErrNotFound with no state change. Resubmitting the same code is
// allowed and records an additional request.
func (s *Service) Request(ctx context.Context, refCode, email, reason string) error {
	o, err := s.orders.ByRefCode(ctx, refCode)
	if err != nil {
		return err
	}

	if err := s.orders.MarkRefundRequested(ctx, o.ID); err != nil {
		return errors.Wrap(err, "flag order")
	}

	r := &Refund{
		ID:      uuid.New(),
		OrderID: o.ID,
		Reason:  reason,
		Email:   email,
	}
	if err := s.refunds.Create(ctx, r); err != nil {
		return errors.Wrap(err, "store refund request")
	}
	return nil
}
