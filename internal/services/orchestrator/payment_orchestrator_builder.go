package orchestrator

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/diogomassis/payments-core/internal/logger"
	"github.com/diogomassis/payments-core/internal/services/locker"
	"github.com/diogomassis/payments-core/internal/services/validator"
)

type PaymentOrchestratorBuilder struct {
	validator PayerValidator
	fraud     FraudChecker
	bank      BankGateway
	ledger    LedgerStore
	locker    RefundLocker
	log       *zerolog.Logger
	now       func() time.Time
}

func NewPaymentOrchestratorBuilder() *PaymentOrchestratorBuilder {
	return &PaymentOrchestratorBuilder{}
}

func (b *PaymentOrchestratorBuilder) WithValidator(validator PayerValidator) *PaymentOrchestratorBuilder {
	b.validator = validator
	return b
}

func (b *PaymentOrchestratorBuilder) WithFraudChecker(fraud FraudChecker) *PaymentOrchestratorBuilder {
	b.fraud = fraud
	return b
}

func (b *PaymentOrchestratorBuilder) WithBank(bank BankGateway) *PaymentOrchestratorBuilder {
	b.bank = bank
	return b
}

func (b *PaymentOrchestratorBuilder) WithLedger(ledger LedgerStore) *PaymentOrchestratorBuilder {
	b.ledger = ledger
	return b
}

func (b *PaymentOrchestratorBuilder) WithRefundLocker(locker RefundLocker) *PaymentOrchestratorBuilder {
	b.locker = locker
	return b
}

func (b *PaymentOrchestratorBuilder) WithLogger(log zerolog.Logger) *PaymentOrchestratorBuilder {
	b.log = &log
	return b
}

func (b *PaymentOrchestratorBuilder) WithClock(now func() time.Time) *PaymentOrchestratorBuilder {
	b.now = now
	return b
}

// Build checks the required collaborators and fills in defaults for the rest:
// the card validator, an in-process refund lock table, a no-op logger and the
// wall clock.
func (b *PaymentOrchestratorBuilder) Build() (*PaymentOrchestrator, error) {
	if b.fraud == nil {
		return nil, errors.New("fraud checker is required")
	}
	if b.bank == nil {
		return nil, errors.New("bank gateway is required")
	}
	if b.ledger == nil {
		return nil, errors.New("ledger store is required")
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	payerValidator := b.validator
	if payerValidator == nil {
		payerValidator = validator.NewCardValidator(now)
	}
	refundLocker := b.locker
	if refundLocker == nil {
		refundLocker = locker.NewKeyedLocker()
	}
	log := zerolog.Nop()
	if b.log != nil {
		log = logger.Component(*b.log, "orchestrator")
	}

	return &PaymentOrchestrator{
		validator: payerValidator,
		fraud:     b.fraud,
		bank:      b.bank,
		ledger:    b.ledger,
		locker:    refundLocker,
		log:       log,
		now:       now,
	}, nil
}
