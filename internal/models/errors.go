package models

import (
	"errors"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrFraud               = errors.New("fraud detected")
	ErrBankDeclined        = errors.New("bank declined")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// PaymentError is a classified failure of a payment or refund. Kind is one of the
// sentinels above; Message is safe to show to the caller as-is.
type PaymentError struct {
	Kind    error
	Message string
	Cause   error
}

func (e *PaymentError) Error() string {
	return e.Message
}

func (e *PaymentError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func NewValidationError(message string) *PaymentError {
	return &PaymentError{Kind: ErrValidation, Message: message}
}

func NewFraudError(message string) *PaymentError {
	return &PaymentError{Kind: ErrFraud, Message: message}
}

func NewBankDeclinedError(message string, cause error) *PaymentError {
	return &PaymentError{Kind: ErrBankDeclined, Message: message, Cause: cause}
}

func NewTransactionNotFoundError(message string) *PaymentError {
	return &PaymentError{Kind: ErrTransactionNotFound, Message: message}
}

// KindOf reports which sentinel classifies err, or nil for unclassified errors.
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrFraud, ErrBankDeclined, ErrTransactionNotFound} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
