package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/appie1702/storefront/internal/domain/catalog"
)

const (
	itemColumns = `id, title, price, discount_price, category, label, slug, description, image, created_at`

	listItemsSQL = `SELECT ` + itemColumns + ` FROM items
		WHERE ($1 = '' OR title ILIKE '%' || $1 || '%')
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3`

	countItemsSQL = `SELECT count(*) FROM items
		WHERE ($1 = '' OR title ILIKE '%' || $1 || '%')`

	getItemBySlugSQL = `SELECT ` + itemColumns + ` FROM items WHERE slug = $1`

	createItemSQL = `INSERT INTO items
		(id, title, price, discount_price, category, label, slug, description, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (slug) DO UPDATE SET
			title = EXCLUDED.title,
			price = EXCLUDED.price,
			discount_price = EXCLUDED.discount_price,
			category = EXCLUDED.category,
			label = EXCLUDED.label,
			description = EXCLUDED.description,
			image = EXCLUDED.image`
)

var _ catalog.Repository = (*ItemRepository)(nil)

// ItemRepository implements catalog.Repository backed by PostgreSQL.
type ItemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository returns an ItemRepository that uses the given pool.
func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

// List returns one page of items, optionally filtered by a
// case-insensitive title substring.
func (r *ItemRepository) List(ctx context.Context, search string, page, pageSize int) (*catalog.Page, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	var total int
	if err := r.pool.QueryRow(ctx, countItemsSQL, search).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting items: %w", err)
	}

	rows, err := r.pool.Query(ctx, listItemsSQL, search, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanItem)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	return &catalog.Page{
		Items:      items,
		Total:      total,
		PageNumber: page,
		PageSize:   pageSize,
	}, nil
}

// GetBySlug returns a single item by its slug.
func (r *ItemRepository) GetBySlug(ctx context.Context, slug string) (*catalog.Item, error) {
	rows, err := r.pool.Query(ctx, getItemBySlugSQL, slug)
	if err != nil {
		return nil, fmt.Errorf("getting item %q: %w", slug, err)
	}

	item, err := pgx.CollectExactlyOneRow(rows, scanItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting item %q: %w", slug, err)
	}
	return &item, nil
}

// Create persists a catalog item, updating an existing one with the
// same slug.
func (r *ItemRepository) Create(ctx context.Context, item *catalog.Item) error {
	_, err := r.pool.Exec(ctx, createItemSQL,
		item.ID, item.Title, item.Price, item.DiscountPrice,
		item.Category, item.Label, item.Slug, item.Description, item.Image,
	)
	if err != nil {
		return fmt.Errorf("creating item %q: %w", item.Slug, err)
	}
	return nil
}

func scanItem(row pgx.CollectableRow) (catalog.Item, error) {
	var it catalog.Item
	err := row.Scan(
		&it.ID, &it.Title, &it.Price, &it.DiscountPrice,
		&it.Category, &it.Label, &it.Slug, &it.Description, &it.Image, &it.CreatedAt,
	)
	return it, err
}
