package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/appie1702/storefront/internal/domain/coupon"
	"github.com/appie1702/storefront/internal/domain/order"
)

const (
	orderColumns = `o.id, o.user_id, o.ordered, o.start_date, o.ordered_date,
		o.paid, o.being_delivered, o.delivered, o.refund_requested, o.refund_granted,
		o.ref_code, o.shipping_address_id, o.billing_address_id,
		c.code, c.amount`

	orderFromJoin = ` FROM orders o LEFT JOIN coupons c ON c.code = o.coupon_code`

	openOrderSQL = `SELECT ` + orderColumns + orderFromJoin +
		` WHERE o.user_id = $1 AND NOT o.ordered`

	orderByRefCodeSQL = `SELECT ` + orderColumns + orderFromJoin +
		` WHERE o.ref_code = $1`

	orderLinesSQL = `SELECT l.id, l.user_id, l.order_id, l.item_id, l.quantity, l.ordered,
		i.id, i.title, i.price, i.discount_price, i.category, i.label, i.slug,
		i.description, i.image, i.created_at
		FROM order_items l JOIN items i ON i.id = l.item_id
		WHERE l.order_id = $1 ORDER BY i.title`

	createOrderSQL = `INSERT INTO orders (id, user_id, start_date, ordered_date)
		VALUES ($1, $2, $3, $4)`

	addLineSQL = `INSERT INTO order_items (id, user_id, order_id, item_id, quantity)
		VALUES ($1, $2, $3, $4, $5)`

	setLineQuantitySQL = `UPDATE order_items SET quantity = $2 WHERE id = $1`

	deleteLineSQL = `DELETE FROM order_items WHERE id = $1`

	attachCouponSQL = `UPDATE orders SET coupon_code = $2 WHERE id = $1`

	markRefundRequestedSQL = `UPDATE orders SET refund_requested = TRUE WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Open returns the user's open order with lines and coupon hydrated, or
// order.ErrNoOpenOrder. The partial unique index on open orders
// guarantees at most one row.
func (r *OrderRepository) Open(ctx context.Context, userID uuid.UUID) (*order.Order, error) {
	o, err := r.one(ctx, openOrderSQL, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNoOpenOrder
		}
		return nil, fmt.Errorf("getting open order: %w", err)
	}
	return o, nil
}

// ByRefCode returns the order carrying the reference code, or
// order.ErrNotFound.
func (r *OrderRepository) ByRefCode(ctx context.Context, refCode string) (*order.Order, error) {
	o, err := r.one(ctx, orderByRefCodeSQL, refCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order by ref code: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) one(ctx context.Context, sql string, arg any) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		return nil, err
	}

	lineRows, err := r.pool.Query(ctx, orderLinesSQL, o.ID)
	if err != nil {
		return nil, fmt.Errorf("loading order lines: %w", err)
	}
	o.Lines, err = pgx.CollectRows(lineRows, scanLine)
	if err != nil {
		return nil, fmt.Errorf("loading order lines: %w", err)
	}
	return &o, nil
}

// Create persists a new order together with its initial lines. When the
// user already has an open order the partial unique index rejects the
// insert and order.ErrOpenOrderExists is returned.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("creating order: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx, createOrderSQL, o.ID, o.UserID, o.StartDate, o.OrderedDate)
	if err != nil {
		if isUniqueViolation(err, "orders_one_open_per_user") {
			return order.ErrOpenOrderExists
		}
		return fmt.Errorf("creating order: %w", err)
	}
	for _, l := range o.Lines {
		if _, err := tx.Exec(ctx, addLineSQL, l.ID, l.UserID, l.OrderID, l.ItemID, l.Quantity); err != nil {
			return fmt.Errorf("creating order line: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("creating order: %w", err)
	}
	return nil
}

// AddLine attaches a new line to an existing order.
func (r *OrderRepository) AddLine(ctx context.Context, l *order.Line) error {
	_, err := r.pool.Exec(ctx, addLineSQL, l.ID, l.UserID, l.OrderID, l.ItemID, l.Quantity)
	if err != nil {
		return fmt.Errorf("adding order line: %w", err)
	}
	return nil
}

// SetLineQuantity updates a line's quantity.
func (r *OrderRepository) SetLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	_, err := r.pool.Exec(ctx, setLineQuantitySQL, lineID, quantity)
	if err != nil {
		return fmt.Errorf("setting line quantity: %w", err)
	}
	return nil
}

// DeleteLine removes a line from its order and the store.
func (r *OrderRepository) DeleteLine(ctx context.Context, lineID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, deleteLineSQL, lineID)
	if err != nil {
		return fmt.Errorf("deleting order line: %w", err)
	}
	return nil
}

// AttachCoupon links a coupon code to the order.
func (r *OrderRepository) AttachCoupon(ctx context.Context, orderID uuid.UUID, code string) error {
	_, err := r.pool.Exec(ctx, attachCouponSQL, orderID, code)
	if err != nil {
		return fmt.Errorf("attaching coupon: %w", err)
	}
	return nil
}

// MarkRefundRequested flips the order's refund_requested flag. Already
// flagged orders are updated again without conflict.
func (r *OrderRepository) MarkRefundRequested(ctx context.Context, orderID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, markRefundRequestedSQL, orderID)
	if err != nil {
		return fmt.Errorf("marking refund requested: %w", err)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o          order.Order
		refCode    *string
		couponCode *string
		couponAmt  *decimal.Decimal
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.Ordered, &o.StartDate, &o.OrderedDate,
		&o.Paid, &o.BeingDelivered, &o.Delivered, &o.RefundRequested, &o.RefundGranted,
		&refCode, &o.ShippingAddrID, &o.BillingAddrID,
		&couponCode, &couponAmt,
	)
	if refCode != nil {
		o.RefCode = *refCode
	}
	if couponCode != nil && couponAmt != nil {
		o.Coupon = &coupon.Coupon{Code: *couponCode, Amount: *couponAmt}
	}
	return o, err
}

func scanLine(row pgx.CollectableRow) (order.Line, error) {
	var l order.Line
	err := row.Scan(
		&l.ID, &l.UserID, &l.OrderID, &l.ItemID, &l.Quantity, &l.Ordered,
		&l.Item.ID, &l.Item.Title, &l.Item.Price, &l.Item.DiscountPrice,
		&l.Item.Category, &l.Item.Label, &l.Item.Slug,
		&l.Item.Description, &l.Item.Image, &l.Item.CreatedAt,
	)
	return l, err
}
