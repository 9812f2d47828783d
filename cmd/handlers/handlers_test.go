package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogomassis/payments-core/internal/dto"
	"github.com/diogomassis/payments-core/internal/models"
	"github.com/diogomassis/payments-core/internal/services/health"
)

type fakePayments struct {
	err         error
	lastPayment *models.PaymentRequest
	lastRefund  *models.RefundRequest
	lastID      int64
}

func (f *fakePayments) CreatePayment(ctx context.Context, request *models.PaymentRequest) (*models.Transaction, error) {
	f.lastPayment = request
	if f.err != nil {
		return nil, f.err
	}
	t := models.NewPurchase(request, "bank-1", time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC))
	t.ID = 1
	return t, nil
}

func (f *fakePayments) CreateRefund(ctx context.Context, request *models.RefundRequest) (*models.Transaction, error) {
	f.lastRefund = request
	if f.err != nil {
		return nil, f.err
	}
	original := &models.Transaction{ID: request.OriginalTransactionID, CardNumber: "4111111111111111", Currency: "USD"}
	t := models.NewRefund(original, request.Amount, "bank-2", time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC))
	t.ID = 2
	return t, nil
}

func (f *fakePayments) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	return &models.Transaction{ID: id, Amount: decimal.RequireFromString("10"), Type: models.TransactionTypePurchase}, nil
}

type fakeHealth struct {
	healthy bool
}

func (f *fakeHealth) Healthy() bool {
	return f.healthy
}

func (f *fakeHealth) Snapshot() []health.Status {
	return []health.Status{{Name: "ledger", Healthy: f.healthy}}
}

func do(t *testing.T, h *Handler, method, path, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := NewApp(h).Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decodeError(t *testing.T, data []byte) dto.ErrorResponse {
	t.Helper()
	var res dto.ErrorResponse
	require.NoError(t, json.Unmarshal(data, &res))
	return res
}

const paymentBody = `{
	"cardNumber": "4111111111111111",
	"cardHolderName": "Ana Silva",
	"amount": 150.75,
	"currency": "USD",
	"expirationDate": "2030-01",
	"cvv": "123"
}`

func TestHandlePostPayment_Created(t *testing.T) {
	payments := &fakePayments{}
	h := New(payments, &fakeHealth{healthy: true}, zerolog.Nop())

	status, data := do(t, h, http.MethodPost, "/api/payments", paymentBody)

	assert.Equal(t, http.StatusCreated, status)
	require.NotNil(t, payments.lastPayment)
	assert.True(t, decimal.RequireFromString("150.75").Equal(payments.lastPayment.Amount))
	assert.Equal(t, models.NewYearMonth(2030, time.January), *payments.lastPayment.ExpirationDate)

	var transaction models.Transaction
	require.NoError(t, json.Unmarshal(data, &transaction))
	assert.Equal(t, int64(1), transaction.ID)
	assert.Equal(t, models.TransactionTypePurchase, transaction.Type)
	assert.Equal(t, "bank-1", transaction.BankTransactionID)
	assert.Nil(t, transaction.OriginalTransactionID)
}

func TestHandlePostPayment_MalformedBody(t *testing.T) {
	payments := &fakePayments{}
	h := New(payments, &fakeHealth{}, zerolog.Nop())

	for _, body := range []string{"", "{", `{"amount": "abc"}`, `{"expirationDate": "January"}`} {
		status, data := do(t, h, http.MethodPost, "/api/payments", body)
		assert.Equal(t, http.StatusBadRequest, status, body)
		assert.Equal(t, dto.ErrorKindMalformed, decodeError(t, data).Error)
	}
	assert.Nil(t, payments.lastPayment)
}

func TestHandlePostRefund_Created(t *testing.T) {
	payments := &fakePayments{}
	h := New(payments, &fakeHealth{}, zerolog.Nop())

	status, data := do(t, h, http.MethodPost, "/api/payments/refunds", `{"originalTransactionId": 7, "amount": "200.00"}`)

	assert.Equal(t, http.StatusCreated, status)
	require.NotNil(t, payments.lastRefund)
	assert.Equal(t, int64(7), payments.lastRefund.OriginalTransactionID)

	var transaction models.Transaction
	require.NoError(t, json.Unmarshal(data, &transaction))
	assert.Equal(t, models.TransactionTypeRefund, transaction.Type)
	assert.True(t, decimal.RequireFromString("-200").Equal(transaction.Amount))
	require.NotNil(t, transaction.OriginalTransactionID)
	assert.Equal(t, int64(7), *transaction.OriginalTransactionID)
}

func TestHandlers_ErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		kind    string
		message string
	}{
		{"validation", models.NewValidationError("bad card"), http.StatusBadRequest, dto.ErrorKindValidation, "bad card"},
		{"fraud", models.NewFraudError("flagged"), http.StatusForbidden, dto.ErrorKindFraud, "flagged"},
		{"declined", models.NewBankDeclinedError("Insufficient funds", nil), http.StatusPaymentRequired, dto.ErrorKindDeclined, "Insufficient funds"},
		{"not found", models.NewTransactionNotFoundError("missing"), http.StatusNotFound, dto.ErrorKindNotFound, "missing"},
		{"unclassified", errors.New("pq: connection reset"), http.StatusInternalServerError, dto.ErrorKindInternal, msgInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := New(&fakePayments{err: tc.err}, &fakeHealth{}, zerolog.Nop())

			status, data := do(t, h, http.MethodPost, "/api/payments", paymentBody)

			assert.Equal(t, tc.status, status)
			res := decodeError(t, data)
			assert.Equal(t, tc.kind, res.Error)
			assert.Equal(t, tc.message, res.Message)
		})
	}
}

func TestHandleGetTransaction(t *testing.T) {
	payments := &fakePayments{}
	h := New(payments, &fakeHealth{}, zerolog.Nop())

	status, data := do(t, h, http.MethodGet, "/api/payments/42", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(42), payments.lastID)
	var transaction models.Transaction
	require.NoError(t, json.Unmarshal(data, &transaction))
	assert.Equal(t, int64(42), transaction.ID)

	for _, id := range []string{"abc", "0", "-3"} {
		status, data = do(t, h, http.MethodGet, "/api/payments/"+id, "")
		assert.Equal(t, http.StatusBadRequest, status, id)
		assert.Equal(t, msgInvalidID, decodeError(t, data).Message)
	}

	h = New(&fakePayments{err: models.NewTransactionNotFoundError("the transaction was not found")}, &fakeHealth{}, zerolog.Nop())
	status, _ = do(t, h, http.MethodGet, "/api/payments/99", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHandleHealth(t *testing.T) {
	status, data := do(t, New(&fakePayments{}, &fakeHealth{healthy: true}, zerolog.Nop()), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	var res dto.HealthResponse
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Equal(t, "UP", res.Status)
	require.Len(t, res.Dependencies, 1)
	assert.Equal(t, "ledger", res.Dependencies[0].Name)

	status, data = do(t, New(&fakePayments{}, &fakeHealth{healthy: false}, zerolog.Nop()), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Equal(t, "DOWN", res.Status)
}

func TestRequestIDIsEchoed(t *testing.T) {
	app := NewApp(New(&fakePayments{}, &fakeHealth{healthy: true}, zerolog.Nop()))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "req-123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "req-123", resp.Header.Get("X-Request-Id"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}
