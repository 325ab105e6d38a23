package payment

import (
	"context"
	"errors"
	"fmt"
)

// Processor is the subset of a card processor used for campaign billing.
type Processor interface {
	// CreateCustomer registers a customer with paymentMethodID as its default
	// payment method and returns the processor customer id.
	CreateCustomer(ctx context.Context, paymentMethodID string) (string, error)
	// Charge creates and confirms an off-session payment.
	Charge(ctx context.Context, req ChargeRequest) (*Charge, error)
}

type ChargeRequest struct {
	CustomerID      string
	PaymentMethodID string
	// AmountMinor is expressed in the currency's minor unit (cents for usd).
	AmountMinor    int64
	Currency       string
	Description    string
	IdempotencyKey string
	Metadata       map[string]string
}

type Charge struct {
	ID          string
	Status      string
	AmountMinor int64
	Currency    string
}

// CardError is a processor rejection attributable to the card itself.
type CardError struct {
	Code    string
	Message string
}

func (e *CardError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("card error: %s", e.Message)
	}
	return fmt.Sprintf("card error (%s): %s", e.Code, e.Message)
}

func IsCardError(err error) bool {
	var ce *CardError
	return errors.As(err, &ce)
}
