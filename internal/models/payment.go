package models

import (
	"github.com/shopspring/decimal"
)

type PaymentRequest struct {
	CardNumber     string          `json:"cardNumber"`
	CardHolderName string          `json:"cardHolderName"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	ExpirationDate *YearMonth      `json:"expirationDate"`
	Cvv            string          `json:"cvv"`
}

func NewPaymentRequest(cardNumber, holderName string, amount decimal.Decimal, currency string, expiration YearMonth, cvv string) *PaymentRequest {
	return &PaymentRequest{
		CardNumber:     cardNumber,
		CardHolderName: holderName,
		Amount:         amount,
		Currency:       currency,
		ExpirationDate: &expiration,
		Cvv:            cvv,
	}
}

type RefundRequest struct {
	OriginalTransactionID int64           `json:"originalTransactionId"`
	Amount                decimal.Decimal `json:"amount"`
}

func NewRefundRequest(originalTransactionID int64, amount decimal.Decimal) *RefundRequest {
	return &RefundRequest{
		OriginalTransactionID: originalTransactionID,
		Amount:                amount,
	}
}
