package catalog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested item does not exist.
var ErrNotFound = errors.New("item not found")

// Item represents a catalog listing available for purchase. Items are
// immutable from the cart's perspective: an order line references the item
// and derives its price from it at read time.
type Item struct {
	ID            uuid.UUID
	Title         string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	Category      string
	Label         string
	Slug          string
	Description   string
	Image         string
	CreatedAt     time.Time
}

// FinalPrice is the unit price a cart pays for this item: the discount
// price when one is set, the regular price otherwise.
func (i Item) FinalPrice() decimal.Decimal {
	if i.DiscountPrice != nil {
		return *i.DiscountPrice
	}
	return i.Price
}

// Page holds one page of catalog results.
type Page struct {
	Items      []Item
	Total      int
	PageNumber int
	PageSize   int
}

// Repository defines read and write operations for the item catalog.
type Repository interface {
	// List returns one page of items ordered by creation time. When search
	// is non-empty only items whose title contains it (case-insensitively)
	// are returned.
	List(ctx context.Context, search string, page, pageSize int) (*Page, error)
	// GetBySlug returns the item with the given slug, or ErrNotFound.
	GetBySlug(ctx context.Context, slug string) (*Item, error)
	// Create persists a new item.
	Create(ctx context.Context, item *Item) error
}
