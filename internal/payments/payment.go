package payments

type Status string

const (
	StatusSuccess  Status = "SUCCESS"
	StatusRejected Status = "REJECTED"
	StatusFailed   Status = "FAILED"
)

const (
	MessageCompleted         = "Payment completed"
	MessageSuspectedFraud    = "Payment blocked due to suspected fraud"
	MessageChecksumFailed    = "Card number failed checksum validation (suspected fraud)"
	MessageLimitExceeded     = "Transaction limit exceeded"
	MessageGatewayTimeout    = "Gateway timeout"
	MessageInsufficientFunds = "Insufficient funds"
	MessageCardBlocked       = "Card is blocked"
)

type PaymentRequest struct {
	Amount      int64  `json:"amount"`
	CardNumber  string `json:"cardNumber"`
	ExpiryMonth int    `json:"expiryMonth"`
	ExpiryYear  int    `json:"expiryYear"`
	Currency    string `json:"currency"`
	CustomerID  string `json:"customerId"`
}

type PaymentResult struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// Receipt is a PaymentResult plus the USD bookkeeping amount. The
// conversion never influences the status.
type Receipt struct {
	PaymentResult
	Currency  string `json:"currency"`
	AmountUSD int64  `json:"amountUsd"`
}

func success() PaymentResult {
	return PaymentResult{Status: StatusSuccess, Message: MessageCompleted}
}

func rejected(message string) PaymentResult {
	return PaymentResult{Status: StatusRejected, Message: message}
}

func failed(message string) PaymentResult {
	return PaymentResult{Status: StatusFailed, Message: message}
}
