package validator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogomassis/payments-core/internal/models"
)

var fixedNow = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

func validRequest() *models.PaymentRequest {
	return models.NewPaymentRequest(
		"4111111111111111",
		"Juan Pérez",
		decimal.RequireFromString("500.00"),
		"USD",
		models.NewYearMonth(2027, time.December),
		"123",
	)
}

func newValidator() *CardValidator {
	return NewCardValidator(func() time.Time { return fixedNow })
}

func TestIsValidCardNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		number string
		want   bool
	}{
		{"4111111111111111", true},
		{"1234567890123456", false},
		{"5555555555554444", true},
		{"378282246310005", true},
		{"79927398713", true},
		{"79927398710", false},
		{"0", true},
		{"", false},
		{"4111 1111 1111 1111", false},
		{"4111-1111-1111-1111", false},
		{"41111111111111a1", false},
		{"٤١١١١١١١١١١١١١١١", false},
	}
	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidCardNumber(tt.number))
		})
	}
}

func TestValidatePayerInfo_Valid(t *testing.T) {
	t.Parallel()

	assert.NoError(t, newValidator().ValidatePayerInfo(validRequest()))
}

func TestValidatePayerInfo_Expiry(t *testing.T) {
	t.Parallel()

	v := newValidator()

	current := validRequest()
	current.ExpirationDate = &models.YearMonth{Year: 2026, Month: time.October}
	assert.NoError(t, v.ValidatePayerInfo(current), "a card expiring this month is still valid")

	previous := validRequest()
	previous.ExpirationDate = &models.YearMonth{Year: 2026, Month: time.September}
	err := v.ValidatePayerInfo(previous)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, MsgCardExpired, err.Error())

	lastYear := validRequest()
	lastYear.ExpirationDate = &models.YearMonth{Year: 2025, Month: time.December}
	assert.Error(t, v.ValidatePayerInfo(lastYear))
}

func TestValidatePayerInfo_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(r *models.PaymentRequest)
		wantMsg string
	}{
		{"bad checksum", func(r *models.PaymentRequest) { r.CardNumber = "1234567890123456" }, MsgInvalidCardNumber},
		{"missing card number", func(r *models.PaymentRequest) { r.CardNumber = "" }, MsgInvalidCardNumber},
		{"blank holder", func(r *models.PaymentRequest) { r.CardHolderName = "   \t" }, MsgMissingHolderName},
		{"missing expiry", func(r *models.PaymentRequest) { r.ExpirationDate = nil }, MsgMissingExpiration},
		{"short cvv", func(r *models.PaymentRequest) { r.Cvv = "12" }, MsgInvalidCvv},
		{"long cvv", func(r *models.PaymentRequest) { r.Cvv = "12345" }, MsgInvalidCvv},
		{"letters in cvv", func(r *models.PaymentRequest) { r.Cvv = "12a" }, MsgInvalidCvv},
		{"zero amount", func(r *models.PaymentRequest) { r.Amount = decimal.Zero }, MsgInvalidAmount},
		{"negative amount", func(r *models.PaymentRequest) { r.Amount = decimal.RequireFromString("-1.00") }, MsgInvalidAmount},
		{"blank currency", func(r *models.PaymentRequest) { r.Currency = " " }, MsgMissingCurrency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := validRequest()
			tt.mutate(request)

			err := newValidator().ValidatePayerInfo(request)
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrValidation)
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestValidatePayerInfo_ReportsFirstFailureOnly(t *testing.T) {
	t.Parallel()

	request := validRequest()
	request.CardNumber = "1234567890123456"
	request.CardHolderName = ""
	request.Cvv = "1"

	err := newValidator().ValidatePayerInfo(request)
	require.Error(t, err)
	assert.Equal(t, MsgInvalidCardNumber, err.Error())

	request.CardNumber = "4111111111111111"
	err = newValidator().ValidatePayerInfo(request)
	require.Error(t, err)
	assert.Equal(t, MsgMissingHolderName, err.Error())
}
