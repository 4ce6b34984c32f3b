package address

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Kind distinguishes billing from shipping addresses.
type Kind string

const (
	KindBilling  Kind = "billing"
	KindShipping Kind = "shipping"
)

// ErrNoDefault is returned when a user has no default address of the
// requested kind.
var ErrNoDefault = errors.New("no default address")

// Address is a postal address in a user's address book. At most one
// address per (user, kind) carries the default flag; setting a new
// default clears the previous one.
type Address struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Line1     string
	Line2     string
	Country   string
	Zip       string
	Kind      Kind
	IsDefault bool
	CreatedAt time.Time
}

// Complete reports whether every field required at checkout is filled in.
func (a Address) Complete() bool {
	return a.Line1 != "" && a.Line2 != "" && a.Country != "" && a.Zip != ""
}

// Repository defines persistence operations for the address book.
type Repository interface {
	Create(ctx context.Context, a *Address) error
	// Default returns the user's default address of the given kind, or
	// ErrNoDefault.
	Default(ctx context.Context, userID uuid.UUID, kind Kind) (*Address, error)
	ByUser(ctx context.Context, userID uuid.UUID) ([]Address, error)
}
