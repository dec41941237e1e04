package service

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

// PaymentProvider moves money. The state machine decides when; the provider
// only executes. Amounts are in euro cents.
type PaymentProvider interface {
	Charge(ctx context.Context, amountCents int, description, paymentMethod string) (ref string, err error)
	Refund(ctx context.Context, ref string, amountCents int) error
}

type StripeProvider struct {
	api *client.API
}

func NewStripeProvider(apiKey string) *StripeProvider {
	api := &client.API{}
	api.Init(apiKey, nil)

	return &StripeProvider{
		api: api,
	}
}

func (p *StripeProvider) Charge(ctx context.Context, amountCents int, description, paymentMethod string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{
			Context: ctx,
		},
		Amount:        stripe.Int64(int64(amountCents)),
		Currency:      stripe.String(string(stripe.CurrencyEUR)),
		Description:   stripe.String(description),
		PaymentMethod: stripe.String(paymentMethod),
		Confirm:       stripe.Bool(true),
	}

	intent, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return "", fmt.Errorf("p.api.PaymentIntents.New -> %w", err)
	}

	return intent.ID, nil
}

func (p *StripeProvider) Refund(ctx context.Context, ref string, amountCents int) error {
	params := &stripe.RefundParams{
		Params: stripe.Params{
			Context: ctx,
		},
		PaymentIntent: stripe.String(ref),
		Amount:        stripe.Int64(int64(amountCents)),
	}

	if _, err := p.api.Refunds.New(params); err != nil {
		return fmt.Errorf("p.api.Refunds.New -> %w", err)
	}

	return nil
}
