package payment

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

func TestTranslateCardError(t *testing.T) {
	err := translate(&stripe.Error{Type: stripe.ErrorTypeCard, Code: stripe.ErrorCodeCardDeclined, Msg: "Your card was declined."})

	require.True(t, IsCardError(err))
	require.True(t, IsCardError(fmt.Errorf("charge: %w", err)))
	require.Contains(t, err.Error(), "card_declined")
}

func TestTranslateOtherErrors(t *testing.T) {
	apiErr := &stripe.Error{Type: stripe.ErrorTypeAPI, Msg: "internal"}
	require.False(t, IsCardError(translate(apiErr)))
	require.False(t, IsCardError(translate(errors.New("network down"))))
}
