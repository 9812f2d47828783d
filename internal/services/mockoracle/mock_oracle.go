// Package mockoracle serves stand-in fraud and bank oracles for local runs and
// end-to-end tests.
package mockoracle

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/diogomassis/payments-core/internal/logger"
	"github.com/diogomassis/payments-core/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	MsgApproved = "Transaction approved."
	MsgDeclined = "Transaction declined by the bank."
	MsgRefunded = "Refund processed successfully."

	declinedCardSuffix = "0000"
)

var fraudThreshold = decimal.NewFromInt(1000)

type MockOracle struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *MockOracle {
	return &MockOracle{log: logger.Component(log, "mock-oracle")}
}

func (m *MockOracle) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		DisableStartupMessage: true,
	})
	app.Post("/api/mock/antifraud/check", m.HandleFraudCheck)
	app.Post("/api/mock/bank/payments", m.HandleBankPayment)
	app.Post("/api/mock/bank/refunds", m.HandleBankRefund)
	return app
}

// HandleFraudCheck flags every payment above 1000 in any currency.
func (m *MockOracle) HandleFraudCheck(c *fiber.Ctx) error {
	var request models.PaymentRequest
	if err := json.Unmarshal(c.Body(), &request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	fraudulent := request.Amount.GreaterThan(fraudThreshold)
	m.log.Debug().Str("amount", request.Amount.String()).Bool("fraudulent", fraudulent).Msg("Fraud check")
	return c.JSON(models.FraudCheckResponse{Fraudulent: fraudulent})
}

// HandleBankPayment declines cards ending in 0000 and approves the rest.
func (m *MockOracle) HandleBankPayment(c *fiber.Ctx) error {
	var request models.PaymentRequest
	if err := json.Unmarshal(c.Body(), &request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	res := models.BankResponse{
		Status:        models.BankStatusApproved,
		TransactionID: uuid.NewString(),
		Message:       MsgApproved,
	}
	if strings.HasSuffix(request.CardNumber, declinedCardSuffix) {
		res.Status = models.BankStatusDeclined
		res.Message = MsgDeclined
	}
	m.log.Debug().Str("status", res.Status).Str("transactionId", res.TransactionID).Msg("Bank payment")
	return c.JSON(res)
}

func (m *MockOracle) HandleBankRefund(c *fiber.Ctx) error {
	var request models.RefundRequest
	if err := json.Unmarshal(c.Body(), &request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	res := models.BankResponse{
		Status:        models.BankStatusRefunded,
		TransactionID: uuid.NewString(),
		Message:       MsgRefunded,
	}
	m.log.Debug().Int64("originalTransactionId", request.OriginalTransactionID).Str("transactionId", res.TransactionID).Msg("Bank refund")
	return c.JSON(res)
}
