package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/appie1702/storefront/internal/domain/refund"
)

const createRefundSQL = `INSERT INTO refunds (id, order_id, reason, email, accepted)
	VALUES ($1, $2, $3, $4, $5)`

var _ refund.Repository = (*RefundRepository)(nil)

// RefundRepository implements refund.Repository backed by PostgreSQL.
type RefundRepository struct {
	pool *pgxpool.Pool
}

// NewRefundRepository returns a RefundRepository that uses the given pool.
func NewRefundRepository(pool *pgxpool.Pool) *RefundRepository {
	return &RefundRepository{pool: pool}
}

// Create persists a refund request. No uniqueness applies: repeated
// requests for the same order each produce a row.
func (r *RefundRepository) Create(ctx context.Context, rf *refund.Refund) error {
	_, err := r.pool.Exec(ctx, createRefundSQL, rf.ID, rf.OrderID, rf.Reason, rf.Email, rf.Accepted)
	if err != nil {
		return fmt.Errorf("creating refund request: %w", err)
	}
	return nil
}
