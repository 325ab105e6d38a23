package payment

import (
	"context"
	"errors"

	"smallbiznis-rewards/pkg/config"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("payment", fx.Provide(NewStripeProcessor))

type StripeProcessor struct {
	api *client.API
}

func NewStripeProcessor(cfg *config.Config) Processor {
	if cfg.Stripe.SecretKey == "" {
		zap.L().Warn("[Stripe] STRIPE.SECRET_KEY is empty, charges will be rejected by the processor")
	}
	api := &client.API{}
	api.Init(cfg.Stripe.SecretKey, nil)
	return &StripeProcessor{api: api}
}

func (p *StripeProcessor) CreateCustomer(ctx context.Context, paymentMethodID string) (string, error) {
	params := &stripe.CustomerParams{
		PaymentMethod: stripe.String(paymentMethodID),
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	params.Context = ctx

	cus, err := p.api.Customers.New(params)
	if err != nil {
		return "", translate(err)
	}
	return cus.ID, nil
}

func (p *StripeProcessor) Charge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.AmountMinor),
		Currency:      stripe.String(req.Currency),
		Customer:      stripe.String(req.CustomerID),
		PaymentMethod: stripe.String(req.PaymentMethodID),
		Confirm:       stripe.Bool(true),
		OffSession:    stripe.Bool(true),
		Description:   stripe.String(req.Description),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, translate(err)
	}
	return toCharge(pi), nil
}

func toCharge(pi *stripe.PaymentIntent) *Charge {
	return &Charge{
		ID:          pi.ID,
		Status:      string(pi.Status),
		AmountMinor: pi.Amount,
		Currency:    string(pi.Currency),
	}
}

// translate maps stripe card errors to *CardError and leaves the rest as-is.
func translate(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Type == stripe.ErrorTypeCard {
		return &CardError{Code: string(se.Code), Message: se.Msg}
	}
	return err
}
