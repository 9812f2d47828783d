package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentErrorKinds(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: connection refused")
	declined := NewBankDeclinedError("the bank could not process the payment", cause)

	assert.Equal(t, "the bank could not process the payment", declined.Error())
	assert.ErrorIs(t, declined, ErrBankDeclined)
	assert.ErrorIs(t, declined, cause)
	assert.NotErrorIs(t, declined, ErrValidation)

	wrapped := fmt.Errorf("[handler] refund failed: %w", NewValidationError("refund exceeds available amount"))
	assert.Equal(t, ErrValidation, KindOf(wrapped))
	assert.Equal(t, ErrFraud, KindOf(NewFraudError("flagged")))
	assert.Equal(t, ErrTransactionNotFound, KindOf(NewTransactionNotFoundError("missing")))
	assert.Nil(t, KindOf(cause))

	var paymentErr *PaymentError
	assert.True(t, errors.As(wrapped, &paymentErr))
	assert.Equal(t, "refund exceeds available amount", paymentErr.Message)
}
