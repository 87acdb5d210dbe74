package models

import "encoding/json"

// TransactionStatusDeclined is the provider's status for declined payments.
const TransactionStatusDeclined = "Declined"

// PaymentCallback is the payment provider's webhook body. Field names are
// fixed by the provider, only the fields the reconciler acts on are mapped.
type PaymentCallback struct {
	TransactionStatus string      `json:"transactionStatus"`
	OrderReference    string      `json:"orderReference"`
	Email             string      `json:"email"`
	ProcessingDate    json.Number `json:"processingDate"`
}
