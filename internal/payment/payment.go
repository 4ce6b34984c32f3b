// Package payment adapts the external payment provider. The storefront
// only creates a remote payment intent and trusts the provider's success
// callback; the provider's protocol is not reproduced here.
package payment

import (
	"context"
)

// Intent describes a charge to be created with the provider.
type Intent struct {
	// AmountMinor is the amount in integer minor currency units
	// (currency x 100), as the provider requires.
	AmountMinor int64
	Currency    string
	Receipt     string
}

// Gateway creates payment intents with the external provider.
type Gateway interface {
	// CreateIntent registers the intent remotely and returns the
	// provider's reference for it.
	CreateIntent(ctx context.Context, intent Intent) (string, error)
}
