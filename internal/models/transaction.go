package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypePurchase TransactionType = "PURCHASE"
	TransactionTypeRefund   TransactionType = "REFUND"
)

// Transaction is a ledger entry. Stores never update one after Save; corrections
// are new REFUND entries.
type Transaction struct {
	ID                    int64           `json:"id"`
	CardNumber            string          `json:"cardNumber"`
	Amount                decimal.Decimal `json:"amount"`
	Currency              string          `json:"currency"`
	Type                  TransactionType `json:"type"`
	Timestamp             time.Time       `json:"timestamp"`
	OriginalTransactionID *int64          `json:"originalTransactionId"`
	BankTransactionID     string          `json:"bankTransactionId"`
}

func NewPurchase(request *PaymentRequest, bankTransactionID string, at time.Time) *Transaction {
	return &Transaction{
		CardNumber:        request.CardNumber,
		Amount:            request.Amount,
		Currency:          request.Currency,
		Type:              TransactionTypePurchase,
		Timestamp:         at.UTC(),
		BankTransactionID: bankTransactionID,
	}
}

// NewRefund builds the REFUND entry for original. Card number and currency always
// come from the original purchase.
func NewRefund(original *Transaction, amount decimal.Decimal, bankTransactionID string, at time.Time) *Transaction {
	originalID := original.ID
	return &Transaction{
		CardNumber:            original.CardNumber,
		Amount:                amount.Abs().Neg(),
		Currency:              original.Currency,
		Type:                  TransactionTypeRefund,
		Timestamp:             at.UTC(),
		OriginalTransactionID: &originalID,
		BankTransactionID:     bankTransactionID,
	}
}

func (t *Transaction) IsPurchase() bool {
	return t.Type == TransactionTypePurchase
}

func (t *Transaction) IsRefund() bool {
	return t.Type == TransactionTypeRefund
}

// Clone returns a deep copy so callers cannot reach into a store's records.
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	cp := *t
	if t.OriginalTransactionID != nil {
		id := *t.OriginalTransactionID
		cp.OriginalTransactionID = &id
	}
	return &cp
}
