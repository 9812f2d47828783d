package models

const (
	BankStatusApproved = "APPROVED"
	BankStatusDeclined = "DECLINED"
	BankStatusRefunded = "REFUNDED"
)

type FraudCheckResponse struct {
	Fraudulent bool `json:"fraudulent"`
}

type BankResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"transactionId"`
	Message       string `json:"message"`
}

// BankSettlement is an approved bank outcome; declines never produce one.
type BankSettlement struct {
	BankTransactionID string
	Message           string
}

func NewBankSettlement(response *BankResponse) *BankSettlement {
	return &BankSettlement{
		BankTransactionID: response.TransactionID,
		Message:           response.Message,
	}
}
