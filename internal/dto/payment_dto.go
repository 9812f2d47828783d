package dto

import (
	"github.com/diogomassis/payments-core/internal/services/health"
)

const (
	ErrorKindValidation = "validation_error"
	ErrorKindFraud      = "fraud_detected"
	ErrorKindDeclined   = "bank_declined"
	ErrorKindNotFound   = "not_found"
	ErrorKindMalformed  = "malformed_request"
	ErrorKindInternal   = "internal_error"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status       string          `json:"status"`
	Dependencies []health.Status `json:"dependencies"`
}
