// Package payment adapts the external payment provider behind a small
// gateway interface so the checkout flow can be tested with a fake.
package payment

import (
	"context"

	"github.com/samiro/storefront/internal/apperr"
	"github.com/samiro/storefront/internal/models"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// Intent is the client-usable payment authorization handle.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// Gateway creates a payment intent for an authoritative amount expressed in
// minor units (cents). Shipping metadata is attached for the provider's
// fraud and receipt tooling; it is not validated here.
type Gateway interface {
	CreateIntent(ctx context.Context, amountMinorUnits int64, currency string, shipping models.ShippingAddress) (*Intent, error)
}

type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amountMinorUnits int64, currency string, shipping models.ShippingAddress) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinorUnits),
		Currency: stripe.String(currency),
		Shipping: &stripe.ShippingDetailsParams{
			Name: stripe.String(shipping.FullName),
			Address: &stripe.AddressParams{
				Line1:      stripe.String(shipping.Address),
				City:       stripe.String(shipping.City),
				PostalCode: stripe.String(shipping.PostalCode),
				Country:    stripe.String(shipping.Country),
			},
		},
	}
	params.Context = ctx

	intent, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, &apperr.ExternalServiceError{Service: "stripe", Err: err}
	}

	return &Intent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}
