package handlers

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"github.com/diogomassis/payments-core/internal/dto"
	"github.com/diogomassis/payments-core/internal/logger"
	"github.com/diogomassis/payments-core/internal/models"
	"github.com/diogomassis/payments-core/internal/services/health"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	msgMalformedBody = "the request body is not valid JSON for this operation"
	msgInvalidID     = "the transaction id must be a positive integer"
	msgInternal      = "the request could not be processed"
)

type PaymentService interface {
	CreatePayment(ctx context.Context, request *models.PaymentRequest) (*models.Transaction, error)
	CreateRefund(ctx context.Context, request *models.RefundRequest) (*models.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (*models.Transaction, error)
}

type HealthReporter interface {
	Healthy() bool
	Snapshot() []health.Status
}

type Handler struct {
	payments PaymentService
	health   HealthReporter
	log      zerolog.Logger
}

func New(payments PaymentService, health HealthReporter, log zerolog.Logger) *Handler {
	return &Handler{
		payments: payments,
		health:   health,
		log:      logger.Component(log, "http"),
	}
}

// NewApp returns a fiber app encoding JSON with jsoniter and the payment
// routes registered on it.
func NewApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		DisableStartupMessage: true,
	})
	h.Register(app)
	return app
}

func (h *Handler) Register(app *fiber.App) {
	app.Use(h.withRequestLogger)
	app.Post("/api/payments", h.HandlePostPayment)
	app.Post("/api/payments/refunds", h.HandlePostRefund)
	app.Get("/api/payments/:id", h.HandleGetTransaction)
	app.Get("/health", h.HandleHealth)
}

func (h *Handler) HandlePostPayment(c *fiber.Ctx) error {
	var request models.PaymentRequest
	if err := decodeBody(c, &request); err != nil {
		return h.malformed(c, err)
	}
	transaction, err := h.payments.CreatePayment(c.UserContext(), &request)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(transaction)
}

func (h *Handler) HandlePostRefund(c *fiber.Ctx) error {
	var request models.RefundRequest
	if err := decodeBody(c, &request); err != nil {
		return h.malformed(c, err)
	}
	transaction, err := h.payments.CreateRefund(c.UserContext(), &request)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(transaction)
}

func (h *Handler) HandleGetTransaction(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: dto.ErrorKindValidation, Message: msgInvalidID})
	}
	transaction, err := h.payments.GetTransaction(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(transaction)
}

func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	res := dto.HealthResponse{Status: "UP", Dependencies: h.health.Snapshot()}
	if !h.health.Healthy() {
		res.Status = "DOWN"
		return c.Status(fiber.StatusServiceUnavailable).JSON(res)
	}
	return c.JSON(res)
}

// withRequestLogger stores a logger tagged with a per-request id in the user
// context and logs the request once it completes. The id is echoed in the
// X-Request-Id header.
func (h *Handler) withRequestLogger(c *fiber.Ctx) error {
	requestID := c.Get(fiber.HeaderXRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(fiber.HeaderXRequestID, requestID)
	log := h.log.With().Str("request_id", requestID).Str("method", c.Method()).Str("path", c.Path()).Logger()
	c.SetUserContext(logger.WithContext(c.UserContext(), log))

	start := time.Now()
	err := c.Next()
	log.Info().
		Int("status", c.Response().StatusCode()).
		Dur("duration", time.Since(start)).
		Msg("HTTP request")
	return err
}

var errEmptyBody = errors.New("empty request body")

func decodeBody(c *fiber.Ctx, out any) error {
	body := c.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return errEmptyBody
	}
	return json.Unmarshal(body, out)
}

func (h *Handler) malformed(c *fiber.Ctx, err error) error {
	log := logger.FromContext(c.UserContext())
	log.Debug().Err(err).Msg("Malformed request body")
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: dto.ErrorKindMalformed, Message: msgMalformedBody})
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status, kind := statusOf(err)
	message := err.Error()
	if status == fiber.StatusInternalServerError {
		log := logger.FromContext(c.UserContext())
		log.Error().Err(err).Msg("Request failed")
		message = msgInternal
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: kind, Message: message})
}

func statusOf(err error) (int, string) {
	switch models.KindOf(err) {
	case models.ErrValidation:
		return fiber.StatusBadRequest, dto.ErrorKindValidation
	case models.ErrFraud:
		return fiber.StatusForbidden, dto.ErrorKindFraud
	case models.ErrBankDeclined:
		return fiber.StatusPaymentRequired, dto.ErrorKindDeclined
	case models.ErrTransactionNotFound:
		return fiber.StatusNotFound, dto.ErrorKindNotFound
	default:
		return fiber.StatusInternalServerError, dto.ErrorKindInternal
	}
}
