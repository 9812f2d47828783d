package persistence

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/diogomassis/payments-core/internal/models"
)

var ErrInvalidTransaction = errors.New("invalid transaction")

// MemoryLedger keeps the ledger in process memory. Records are copied on the way
// in and out so nobody can mutate a stored entry. Data is lost on restart.
type MemoryLedger struct {
	mutex        sync.RWMutex
	nextID       int64
	transactions map[int64]*models.Transaction
	refunds      map[int64][]int64
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		transactions: make(map[int64]*models.Transaction),
		refunds:      make(map[int64][]int64),
	}
}

func (m *MemoryLedger) Save(ctx context.Context, transaction *models.Transaction) (*models.Transaction, error) {
	if err := CheckWritable(transaction); err != nil {
		return nil, err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.nextID++
	stored := transaction.Clone()
	stored.ID = m.nextID
	m.transactions[stored.ID] = stored
	if stored.IsRefund() {
		originalID := *stored.OriginalTransactionID
		m.refunds[originalID] = append(m.refunds[originalID], stored.ID)
	}
	return stored.Clone(), nil
}

func (m *MemoryLedger) FindByID(ctx context.Context, id int64) (*models.Transaction, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	transaction, ok := m.transactions[id]
	if !ok {
		return nil, nil
	}
	return transaction.Clone(), nil
}

func (m *MemoryLedger) SumRefundsByOriginalID(ctx context.Context, originalID int64) (decimal.Decimal, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	total := decimal.Zero
	for _, id := range m.refunds[originalID] {
		total = total.Add(m.transactions[id].Amount.Abs())
	}
	return total, nil
}

func (m *MemoryLedger) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryLedger) Close() error {
	return nil
}
