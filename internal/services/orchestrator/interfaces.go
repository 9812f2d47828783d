package orchestrator

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/diogomassis/payments-core/internal/models"
)

type PayerValidator interface {
	ValidatePayerInfo(request *models.PaymentRequest) error
}

type FraudChecker interface {
	IsFraudulent(ctx context.Context, request *models.PaymentRequest) (bool, error)
}

type BankGateway interface {
	Charge(ctx context.Context, request *models.PaymentRequest) (*models.BankSettlement, error)
	Refund(ctx context.Context, request *models.RefundRequest) (*models.BankSettlement, error)
}

// LedgerStore is the durable, write-once transaction store.
//
// Save assigns the id and returns the stored record. FindByID returns (nil, nil)
// when the id is unknown. SumRefundsByOriginalID returns the refunded magnitude,
// a non-negative amount, zero when nothing was refunded.
type LedgerStore interface {
	Save(ctx context.Context, transaction *models.Transaction) (*models.Transaction, error)
	FindByID(ctx context.Context, id int64) (*models.Transaction, error)
	SumRefundsByOriginalID(ctx context.Context, originalID int64) (decimal.Decimal, error)
}

// RefundLocker serializes refunds against the same original transaction.
type RefundLocker interface {
	Lock(ctx context.Context, originalID int64) (func(), error)
}
