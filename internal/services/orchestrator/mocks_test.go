package orchestrator_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/diogomassis/payments-core/internal/models"
)

type stubValidator struct {
	err   error
	calls atomic.Int32
}

func (s *stubValidator) ValidatePayerInfo(request *models.PaymentRequest) error {
	s.calls.Add(1)
	return s.err
}

type stubFraud struct {
	fraudulent bool
	err        error
	calls      atomic.Int32
}

func (s *stubFraud) IsFraudulent(ctx context.Context, request *models.PaymentRequest) (bool, error) {
	s.calls.Add(1)
	return s.fraudulent, s.err
}

type stubBank struct {
	chargeErr   error
	refundErr   error
	refundDelay time.Duration
	charges     atomic.Int32
	refunds     atomic.Int32
	sequence    atomic.Int64
}

func (s *stubBank) Charge(ctx context.Context, request *models.PaymentRequest) (*models.BankSettlement, error) {
	s.charges.Add(1)
	if s.chargeErr != nil {
		return nil, s.chargeErr
	}
	return &models.BankSettlement{BankTransactionID: fmt.Sprintf("bank-p-%d", s.sequence.Add(1))}, nil
}

func (s *stubBank) Refund(ctx context.Context, request *models.RefundRequest) (*models.BankSettlement, error) {
	s.refunds.Add(1)
	if s.refundDelay > 0 {
		time.Sleep(s.refundDelay)
	}
	if s.refundErr != nil {
		return nil, s.refundErr
	}
	return &models.BankSettlement{BankTransactionID: fmt.Sprintf("bank-r-%d", s.sequence.Add(1))}, nil
}

var errLedgerDown = errors.New("ledger down")

// failingLedger wraps a real ledger and fails Save once armed.
type failingLedger struct {
	inner interface {
		Save(ctx context.Context, transaction *models.Transaction) (*models.Transaction, error)
		FindByID(ctx context.Context, id int64) (*models.Transaction, error)
		SumRefundsByOriginalID(ctx context.Context, originalID int64) (decimal.Decimal, error)
	}
	failSave atomic.Bool
	saves    atomic.Int32
}

func (f *failingLedger) Save(ctx context.Context, transaction *models.Transaction) (*models.Transaction, error) {
	f.saves.Add(1)
	if f.failSave.Load() {
		return nil, errLedgerDown
	}
	return f.inner.Save(ctx, transaction)
}

func (f *failingLedger) FindByID(ctx context.Context, id int64) (*models.Transaction, error) {
	return f.inner.FindByID(ctx, id)
}

func (f *failingLedger) SumRefundsByOriginalID(ctx context.Context, originalID int64) (decimal.Decimal, error) {
	return f.inner.SumRefundsByOriginalID(ctx, originalID)
}

type countingLocker struct {
	mutex    sync.Mutex
	acquired []int64
	released int
}

func (c *countingLocker) Lock(ctx context.Context, originalID int64) (func(), error) {
	c.mutex.Lock()
	c.acquired = append(c.acquired, originalID)
	c.mutex.Unlock()
	return func() {
		c.mutex.Lock()
		c.released++
		c.mutex.Unlock()
	}, nil
}
