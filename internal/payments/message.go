package payments

import "time"

// PaymentMessage is the stream envelope for a queued payment request.
type PaymentMessage struct {
	PaymentRequest
	CorrelationId string    `json:"correlationId"`
	RequestedAt   time.Time `json:"requestedAt"`
}

type ResultMessage struct {
	CorrelationId string    `json:"correlationId"`
	Status        Status    `json:"status"`
	Message       string    `json:"message"`
	ProcessedAt   time.Time `json:"processedAt"`
}
