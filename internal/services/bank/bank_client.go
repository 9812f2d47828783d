package bank

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/diogomassis/payments-core/internal/models"
	"github.com/diogomassis/payments-core/internal/services/processor"
)

const (
	paymentsPath = "/payments"
	refundsPath  = "/refunds"

	MsgPaymentFailed = "the bank could not process the payment"
	MsgRefundFailed  = "the bank could not process the refund"
)

type refundBody struct {
	OriginalTransactionID int64           `json:"originalTransactionId"`
	Amount                decimal.Decimal `json:"amount"`
}

type BankClient struct {
	oracle *processor.HTTPOracle
}

func NewBankClient(url string, timeout time.Duration) *BankClient {
	return &BankClient{
		oracle: processor.NewHTTPOracle("bank", url, timeout),
	}
}

// Charge settles a purchase. Anything other than an APPROVED answer, including an
// unreachable bank, is a decline.
func (c *BankClient) Charge(ctx context.Context, request *models.PaymentRequest) (*models.BankSettlement, error) {
	return c.settle(ctx, paymentsPath, request, models.BankStatusApproved, MsgPaymentFailed)
}

// Refund settles a refund against the original ledger id. Only REFUNDED counts as
// approval.
func (c *BankClient) Refund(ctx context.Context, request *models.RefundRequest) (*models.BankSettlement, error) {
	body := refundBody{
		OriginalTransactionID: request.OriginalTransactionID,
		Amount:                request.Amount,
	}
	return c.settle(ctx, refundsPath, body, models.BankStatusRefunded, MsgRefundFailed)
}

func (c *BankClient) settle(ctx context.Context, path string, body any, approvedStatus, fallback string) (*models.BankSettlement, error) {
	var response models.BankResponse
	present, err := c.oracle.PostJSON(ctx, path, body, &response)
	if err != nil {
		return nil, models.NewBankDeclinedError(fallback, err)
	}
	if !present {
		return nil, models.NewBankDeclinedError(fallback, nil)
	}
	if response.Status != approvedStatus {
		message := response.Message
		if message == "" {
			message = fallback
		}
		return nil, models.NewBankDeclinedError(message, nil)
	}
	if strings.TrimSpace(response.TransactionID) == "" {
		return nil, models.NewBankDeclinedError(fallback, processor.ErrMalformedResponse)
	}
	return models.NewBankSettlement(&response), nil
}
