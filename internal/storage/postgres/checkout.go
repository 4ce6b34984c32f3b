package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/appie1702/storefront/internal/domain/address"
	"github.com/appie1702/storefront/internal/domain/checkout"
)

const (
	setShippingAddressSQL = `UPDATE orders SET shipping_address_id = $2 WHERE id = $1`
	setBillingAddressSQL  = `UPDATE orders SET billing_address_id = $2 WHERE id = $1`

	finalizeOrderSQL = `UPDATE orders
		SET ordered = TRUE, paid = paid OR $3, ref_code = $2, ordered_date = now()
		WHERE id = $1`

	flipOrderLinesSQL = `UPDATE order_items SET ordered = TRUE WHERE order_id = $1`
)

var _ checkout.Store = (*CheckoutStore)(nil)

// CheckoutStore runs checkout submissions atomically: every address
// write and the finalization of one submission share a transaction.
type CheckoutStore struct {
	pool *pgxpool.Pool
}

// NewCheckoutStore returns a CheckoutStore that uses the given pool.
func NewCheckoutStore(pool *pgxpool.Pool) *CheckoutStore {
	return &CheckoutStore{pool: pool}
}

// InTx runs fn within a transaction, committing on nil and rolling back
// on error.
func (s *CheckoutStore) InTx(ctx context.Context, fn func(ctx context.Context, tx checkout.Tx) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &checkoutTx{tx: tx})
	})
}

var _ checkout.Tx = (*checkoutTx)(nil)

// checkoutTx implements checkout.Tx over one pgx transaction.
type checkoutTx struct {
	tx pgx.Tx
}

func (t *checkoutTx) DefaultAddress(ctx context.Context, userID uuid.UUID, kind address.Kind) (*address.Address, error) {
	return defaultAddress(ctx, t.tx, userID, kind)
}

func (t *checkoutTx) CreateAddress(ctx context.Context, a *address.Address) error {
	return createAddress(ctx, t.tx, a)
}

func (t *checkoutTx) ClearDefault(ctx context.Context, userID uuid.UUID, kind address.Kind) error {
	if _, err := t.tx.Exec(ctx, clearDefaultSQL, userID, kind); err != nil {
		return fmt.Errorf("clearing default %s address: %w", kind, err)
	}
	return nil
}

func (t *checkoutTx) SetShippingAddress(ctx context.Context, orderID, addrID uuid.UUID) error {
	if _, err := t.tx.Exec(ctx, setShippingAddressSQL, orderID, addrID); err != nil {
		return fmt.Errorf("setting shipping address: %w", err)
	}
	return nil
}

func (t *checkoutTx) SetBillingAddress(ctx context.Context, orderID, addrID uuid.UUID) error {
	if _, err := t.tx.Exec(ctx, setBillingAddressSQL, orderID, addrID); err != nil {
		return fmt.Errorf("setting billing address: %w", err)
	}
	return nil
}

// Finalize marks the order ordered (and paid when requested), stores the
// reference code, and flips the order's own lines. A reference code
// collision surfaces as checkout.ErrRefCodeTaken so the caller can
// regenerate. The attempt runs under a savepoint: after the first
// statement error PostgreSQL aborts the enclosing transaction, and only
// rolling back to a savepoint keeps it usable for a retry.
func (t *checkoutTx) Finalize(ctx context.Context, orderID uuid.UUID, refCode string, paid bool) error {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("opening savepoint: %w", err)
	}

	if _, err := sp.Exec(ctx, finalizeOrderSQL, orderID, refCode, paid); err != nil {
		_ = sp.Rollback(ctx)
		if isUniqueViolation(err, "orders_ref_code_key") {
			return checkout.ErrRefCodeTaken
		}
		return fmt.Errorf("finalizing order: %w", err)
	}
	if _, err := sp.Exec(ctx, flipOrderLinesSQL, orderID); err != nil {
		_ = sp.Rollback(ctx)
		return fmt.Errorf("flipping order lines: %w", err)
	}
	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("releasing savepoint: %w", err)
	}
	return nil
}
