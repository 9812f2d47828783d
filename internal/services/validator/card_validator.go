package validator

import (
	"regexp"
	"strings"
	"time"

	"github.com/diogomassis/payments-core/internal/models"
)

const (
	MsgInvalidCardNumber = "the card number is invalid"
	MsgMissingHolderName = "the card holder name is required"
	MsgMissingExpiration = "the card expiration date is required"
	MsgCardExpired       = "the card has expired"
	MsgInvalidCvv        = "the CVV is invalid"
	MsgInvalidAmount     = "the payment amount must be greater than zero"
	MsgMissingCurrency   = "the currency is required"
)

var cvvPattern = regexp.MustCompile(`^\d{3,4}$`)

type CardValidator struct {
	now func() time.Time
}

func NewCardValidator(now func() time.Time) *CardValidator {
	if now == nil {
		now = time.Now
	}
	return &CardValidator{now: now}
}

// ValidatePayerInfo checks the request fields in a fixed order and returns the
// first failure only.
func (v *CardValidator) ValidatePayerInfo(request *models.PaymentRequest) error {
	if request == nil {
		return models.NewValidationError("the payment request is required")
	}
	if !IsValidCardNumber(request.CardNumber) {
		return models.NewValidationError(MsgInvalidCardNumber)
	}
	if strings.TrimSpace(request.CardHolderName) == "" {
		return models.NewValidationError(MsgMissingHolderName)
	}
	if request.ExpirationDate == nil {
		return models.NewValidationError(MsgMissingExpiration)
	}
	if v.isExpired(*request.ExpirationDate) {
		return models.NewValidationError(MsgCardExpired)
	}
	if !cvvPattern.MatchString(request.Cvv) {
		return models.NewValidationError(MsgInvalidCvv)
	}
	if !request.Amount.IsPositive() {
		return models.NewValidationError(MsgInvalidAmount)
	}
	if strings.TrimSpace(request.Currency) == "" {
		return models.NewValidationError(MsgMissingCurrency)
	}
	return nil
}

func (v *CardValidator) isExpired(expiration models.YearMonth) bool {
	return expiration.Before(models.YearMonthOf(v.now()))
}

// IsValidCardNumber runs the mod-10 checksum. Anything that is not a plain
// string of ASCII digits fails.
func IsValidCardNumber(cardNumber string) bool {
	if cardNumber == "" {
		return false
	}
	sum := 0
	alternate := false
	for i := len(cardNumber) - 1; i >= 0; i-- {
		c := cardNumber[i]
		if c < '0' || c > '9' {
			return false
		}
		n := int(c - '0')
		if alternate {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		alternate = !alternate
	}
	return sum%10 == 0
}
