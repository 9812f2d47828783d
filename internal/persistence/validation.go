package persistence

import (
	"fmt"

	"github.com/diogomassis/payments-core/internal/models"
)

// CheckWritable enforces the sign and reference rules every ledger backend
// shares before a record is written.
func CheckWritable(t *models.Transaction) error {
	if t == nil {
		return fmt.Errorf("%w: nil transaction", ErrInvalidTransaction)
	}
	switch t.Type {
	case models.TransactionTypePurchase:
		if !t.Amount.IsPositive() {
			return fmt.Errorf("%w: purchase amount must be positive, got %s", ErrInvalidTransaction, t.Amount)
		}
		if t.OriginalTransactionID != nil {
			return fmt.Errorf("%w: purchase cannot reference another transaction", ErrInvalidTransaction)
		}
	case models.TransactionTypeRefund:
		if !t.Amount.IsNegative() {
			return fmt.Errorf("%w: refund amount must be negative, got %s", ErrInvalidTransaction, t.Amount)
		}
		if t.OriginalTransactionID == nil {
			return fmt.Errorf("%w: refund must reference its purchase", ErrInvalidTransaction)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, t.Type)
	}
	return nil
}
