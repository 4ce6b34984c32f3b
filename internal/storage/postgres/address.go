package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/appie1702/storefront/internal/domain/address"
)

const (
	addressColumns = `id, user_id, line1, line2, country, zip, kind, is_default, created_at`

	createAddressSQL = `INSERT INTO addresses
		(id, user_id, line1, line2, country, zip, kind, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	defaultAddressSQL = `SELECT ` + addressColumns + ` FROM addresses
		WHERE user_id = $1 AND kind = $2 AND is_default`

	addressesByUserSQL = `SELECT ` + addressColumns + ` FROM addresses
		WHERE user_id = $1 ORDER BY created_at`

	clearDefaultSQL = `UPDATE addresses SET is_default = FALSE
		WHERE user_id = $1 AND kind = $2 AND is_default`
)

var _ address.Repository = (*AddressRepository)(nil)

// AddressRepository implements address.Repository backed by PostgreSQL.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// Create persists a new address.
func (r *AddressRepository) Create(ctx context.Context, a *address.Address) error {
	return createAddress(ctx, r.pool, a)
}

// Default returns the user's default address of the given kind. The
// schema guarantees at most one such row.
func (r *AddressRepository) Default(ctx context.Context, userID uuid.UUID, kind address.Kind) (*address.Address, error) {
	return defaultAddress(ctx, r.pool, userID, kind)
}

// ByUser returns every address in the user's address book.
func (r *AddressRepository) ByUser(ctx context.Context, userID uuid.UUID) ([]address.Address, error) {
	rows, err := r.pool.Query(ctx, addressesByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing addresses: %w", err)
	}
	return pgx.CollectRows(rows, scanAddress)
}

func createAddress(ctx context.Context, q querier, a *address.Address) error {
	_, err := q.Exec(ctx, createAddressSQL,
		a.ID, a.UserID, a.Line1, a.Line2, a.Country, a.Zip, a.Kind, a.IsDefault,
	)
	if err != nil {
		return fmt.Errorf("creating address: %w", err)
	}
	return nil
}

func defaultAddress(ctx context.Context, q querier, userID uuid.UUID, kind address.Kind) (*address.Address, error) {
	rows, err := q.Query(ctx, defaultAddressSQL, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("getting default %s address: %w", kind, err)
	}
	a, err := pgx.CollectExactlyOneRow(rows, scanAddress)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, address.ErrNoDefault
		}
		return nil, fmt.Errorf("getting default %s address: %w", kind, err)
	}
	return &a, nil
}

func scanAddress(row pgx.CollectableRow) (address.Address, error) {
	var a address.Address
	err := row.Scan(
		&a.ID, &a.UserID, &a.Line1, &a.Line2, &a.Country, &a.Zip,
		&a.Kind, &a.IsDefault, &a.CreatedAt,
	)
	return a, err
}
