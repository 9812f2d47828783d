package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/diogomassis/payments-core/internal/models"
)

const (
	MsgFraudulent          = "the transaction was flagged as fraudulent by the anti-fraud system"
	MsgMissingOriginalID   = "the original transaction id is required"
	MsgInvalidRefundAmount = "the refund amount must be greater than zero"
	MsgOriginalNotFound    = "the original transaction was not found"
	MsgOnlyPurchases       = "only purchase transactions may be refunded"
	MsgRefundExceeds       = "the refund exceeds the available amount"
	MsgTransactionNotFound = "the transaction was not found"
	MsgBankPaymentFailed   = "the bank could not process the payment"
	MsgBankRefundFailed    = "the bank could not process the refund"
)

type PaymentOrchestrator struct {
	validator PayerValidator
	fraud     FraudChecker
	bank      BankGateway
	ledger    LedgerStore
	locker    RefundLocker
	log       zerolog.Logger
	now       func() time.Time
}

// CreatePayment runs validate, fraud check, bank charge and ledger write, in that
// order. The first failing stage ends the request; nothing after it runs.
func (o *PaymentOrchestrator) CreatePayment(ctx context.Context, request *models.PaymentRequest) (*models.Transaction, error) {
	if err := o.validator.ValidatePayerInfo(request); err != nil {
		o.log.Info().Str("stage", "validate").Str("reason", err.Error()).Msg("payment rejected")
		return nil, err
	}
	log := o.log.With().Str("card", maskCard(request.CardNumber)).Str("amount", request.Amount.String()).Str("currency", request.Currency).Logger()

	fraudulent, err := o.fraud.IsFraudulent(ctx, request)
	if err != nil {
		log.Error().Err(err).Str("stage", "fraud").Msg("fraud check failed")
		return nil, fmt.Errorf("[orchestrator] fraud check failed: %w", err)
	}
	if fraudulent {
		log.Warn().Str("stage", "fraud").Msg("payment flagged as fraudulent")
		return nil, models.NewFraudError(MsgFraudulent)
	}

	settlement, err := o.bank.Charge(ctx, request)
	if err != nil {
		log.Warn().Err(err).Str("stage", "settle").Msg("bank declined the payment")
		return nil, asBankDeclined(err, MsgBankPaymentFailed)
	}

	purchase := models.NewPurchase(request, settlement.BankTransactionID, o.now())
	saved, err := o.ledger.Save(ctx, purchase)
	if err != nil {
		// The charge is already settled at the bank; there is no compensation path.
		log.Error().Err(err).Str("stage", "record").Str("bank_transaction_id", settlement.BankTransactionID).
			Msg("bank charge approved but ledger write failed")
		return nil, fmt.Errorf("[orchestrator] failed to record purchase: %w", err)
	}

	log.Info().Int64("transaction_id", saved.ID).Str("bank_transaction_id", saved.BankTransactionID).Msg("payment recorded")
	return saved, nil
}

// CreateRefund refunds part or all of a purchase. The balance check and the
// ledger write run under the refund lock of the original transaction, so two
// refunds of the same purchase can never both spend the same available amount.
func (o *PaymentOrchestrator) CreateRefund(ctx context.Context, request *models.RefundRequest) (*models.Transaction, error) {
	if request == nil || request.OriginalTransactionID <= 0 {
		return nil, models.NewValidationError(MsgMissingOriginalID)
	}
	if !request.Amount.IsPositive() {
		return nil, models.NewValidationError(MsgInvalidRefundAmount)
	}
	log := o.log.With().Int64("original_transaction_id", request.OriginalTransactionID).Str("amount", request.Amount.String()).Logger()

	unlock, err := o.locker.Lock(ctx, request.OriginalTransactionID)
	if err != nil {
		return nil, fmt.Errorf("[orchestrator] failed to lock refunds of transaction %d: %w", request.OriginalTransactionID, err)
	}
	defer unlock()

	original, err := o.ledger.FindByID(ctx, request.OriginalTransactionID)
	if err != nil {
		return nil, fmt.Errorf("[orchestrator] failed to load transaction %d: %w", request.OriginalTransactionID, err)
	}
	if original == nil {
		log.Info().Str("stage", "lookup").Msg("refund rejected: original not found")
		return nil, models.NewTransactionNotFoundError(MsgOriginalNotFound)
	}
	if !original.IsPurchase() {
		log.Info().Str("stage", "type").Str("type", string(original.Type)).Msg("refund rejected: not a purchase")
		return nil, models.NewValidationError(MsgOnlyPurchases)
	}

	refunded, err := o.ledger.SumRefundsByOriginalID(ctx, original.ID)
	if err != nil {
		return nil, fmt.Errorf("[orchestrator] failed to sum refunds of transaction %d: %w", original.ID, err)
	}
	available := original.Amount.Sub(refunded)
	if request.Amount.GreaterThan(available) {
		log.Info().Str("stage", "balance").Str("available", available.String()).Msg("refund rejected: exceeds available amount")
		return nil, models.NewValidationError(MsgRefundExceeds)
	}

	settlement, err := o.bank.Refund(ctx, request)
	if err != nil {
		log.Warn().Err(err).Str("stage", "settle").Msg("bank declined the refund")
		return nil, asBankDeclined(err, MsgBankRefundFailed)
	}

	refund := models.NewRefund(original, request.Amount, settlement.BankTransactionID, o.now())
	saved, err := o.ledger.Save(ctx, refund)
	if err != nil {
		log.Error().Err(err).Str("stage", "record").Str("bank_transaction_id", settlement.BankTransactionID).
			Msg("bank refund approved but ledger write failed")
		return nil, fmt.Errorf("[orchestrator] failed to record refund: %w", err)
	}

	log.Info().Int64("transaction_id", saved.ID).Str("available_before", available.String()).Msg("refund recorded")
	return saved, nil
}

func (o *PaymentOrchestrator) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	transaction, err := o.ledger.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("[orchestrator] failed to load transaction %d: %w", id, err)
	}
	if transaction == nil {
		return nil, models.NewTransactionNotFoundError(MsgTransactionNotFound)
	}
	return transaction, nil
}

func asBankDeclined(err error, fallback string) error {
	if models.KindOf(err) == models.ErrBankDeclined {
		return err
	}
	return models.NewBankDeclinedError(fallback, err)
}

func maskCard(cardNumber string) string {
	if len(cardNumber) <= 4 {
		return "****"
	}
	return "****" + cardNumber[len(cardNumber)-4:]
}
