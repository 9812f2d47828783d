package fraud

import (
	"context"
	"time"

	"github.com/diogomassis/payments-core/internal/models"
	"github.com/diogomassis/payments-core/internal/services/processor"
)

const checkPath = "/check"

type FraudClient struct {
	oracle *processor.HTTPOracle
	// verdict used when the oracle answers without a body
	absentVerdict bool
}

// NewFraudClient builds a client for the fraud oracle at url. With failClosed
// unset an absent verdict counts as "not fraudulent".
func NewFraudClient(url string, timeout time.Duration, failClosed bool) *FraudClient {
	return &FraudClient{
		oracle:        processor.NewHTTPOracle("fraud", url, timeout),
		absentVerdict: failClosed,
	}
}

// IsFraudulent asks the oracle for a verdict. Transport and protocol failures are
// returned unclassified.
func (c *FraudClient) IsFraudulent(ctx context.Context, request *models.PaymentRequest) (bool, error) {
	var response models.FraudCheckResponse
	present, err := c.oracle.PostJSON(ctx, checkPath, request, &response)
	if err != nil {
		return false, err
	}
	if !present {
		return c.absentVerdict, nil
	}
	return response.Fraudulent, nil
}
