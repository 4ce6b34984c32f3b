package payment

import (
	"context"

	"github.com/go-faster/errors"
	razorpay "github.com/razorpay/razorpay-go"
)

var _ Gateway = (*RazorpayGateway)(nil)

// RazorpayGateway implements Gateway against the Razorpay Orders API.
type RazorpayGateway struct {
	client *razorpay.Client
}

// NewRazorpayGateway creates a gateway authenticated with the given key
// pair.
func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(keyID, keySecret)}
}

// CreateIntent creates a Razorpay order for the amount with immediate
// capture. Only the returned order ID is inspected; settlement and
// failure states arrive through the provider's own callback flow.
func (g *RazorpayGateway) CreateIntent(_ context.Context, intent Intent) (string, error) {
	resp, err := g.client.Order.Create(map[string]interface{}{
		"amount":          intent.AmountMinor,
		"currency":        intent.Currency,
		"receipt":         intent.Receipt,
		"payment_capture": 1,
	}, nil)
	if err != nil {
		return "", errors.Wrap(err, "create provider order")
	}

	id, ok := resp["id"].(string)
	if !ok {
		return "", errors.New("provider response missing order id")
	}
	return id, nil
}
