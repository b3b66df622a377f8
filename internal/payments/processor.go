package payments

import (
	"context"
	"errors"
	"fmt"
	"github.com/zoobzio/clockz"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"log/slog"
)

// Processor validates payment requests, screens them for fraud and runs the
// survivors through the simulated gateway. It keeps no state between calls,
// so one instance may be shared by concurrent callers.
type Processor struct {
	rules   Rules
	gateway *SimulatedGateway
	clock   clockz.Clock
	logger  *slog.Logger
}

func NewProcessor(rules Rules, clock clockz.Clock, logger *slog.Logger) (*Processor, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = clockz.RealClock
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	rules = rules.clone()
	return &Processor{
		rules:   rules,
		gateway: NewSimulatedGateway(rules),
		clock:   clock,
		logger:  logger,
	}, nil
}

func (p *Processor) Rules() Rules {
	return p.rules.clone()
}

// ProcessPayment returns an error only for malformed input (see
// ErrInvalidArgument). Fraud, limit and gateway refusals are reported
// through the result status.
func (p *Processor) ProcessPayment(ctx context.Context, req PaymentRequest) (PaymentResult, error) {
	receipt, err := p.Process(ctx, req)
	return receipt.PaymentResult, err
}

// Process is ProcessPayment with the currency conversion of the amount
// attached to the result.
func (p *Processor) Process(ctx context.Context, req PaymentRequest) (Receipt, error) {
	tracer := otel.Tracer("payment-processor")
	ctx, span := tracer.Start(ctx, "process-payment", trace.WithAttributes(
		attribute.Int64("payment.amount", req.Amount),
		attribute.String("payment.customer_id", req.CustomerID),
	))
	defer span.End()

	if err := validate(req, p.clock.Now()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid payment request")
		return Receipt{}, err
	}

	usd, currency := ConvertToUSD(req.Amount, req.Currency)
	span.SetAttributes(
		attribute.String("payment.currency", currency),
		attribute.Int64("payment.amount_usd", usd),
	)

	result := p.decide(ctx, req)

	span.SetAttributes(attribute.String("payment.status", string(result.Status)))
	if result.Status == StatusSuccess {
		span.SetStatus(codes.Ok, result.Message)
	}

	p.logger.Debug("payment processed",
		"customerId", req.CustomerID,
		"amount", req.Amount,
		"currency", currency,
		"amountUsd", usd,
		"status", result.Status,
		"message", result.Message,
	)

	return Receipt{PaymentResult: result, Currency: currency, AmountUSD: usd}, nil
}

func (p *Processor) decide(ctx context.Context, req PaymentRequest) PaymentResult {
	if result, ok := p.screen(req.CardNumber); !ok {
		return result
	}

	if req.Amount > p.rules.TransactionLimit {
		return failed(MessageLimitExceeded)
	}

	return p.gateway.Charge(ctx, req.Amount, req.CardNumber)
}

// BulkProcess runs every request independently and never fails as a whole:
// validation errors and panics become REJECTED results for their item only.
// The output has the same length and order as the input.
func (p *Processor) BulkProcess(ctx context.Context, requests []PaymentRequest) []PaymentResult {
	tracer := otel.Tracer("payment-processor")
	ctx, span := tracer.Start(ctx, "bulk-process", trace.WithAttributes(
		attribute.Int("batch.size", len(requests)),
	))
	defer span.End()

	results := make([]PaymentResult, len(requests))
	rejectedCount := 0
	for i, req := range requests {
		results[i] = p.processItem(ctx, req)
		if results[i].Status == StatusRejected {
			rejectedCount++
		}
	}

	span.SetAttributes(attribute.Int("batch.rejected", rejectedCount))
	return results
}

func (p *Processor) processItem(ctx context.Context, req PaymentRequest) (result PaymentResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("recovered while processing payment", "customerId", req.CustomerID, "panic", r)
			result = rejected(fmt.Sprintf("unexpected error: %v", r))
		}
	}()

	result, err := p.ProcessPayment(ctx, req)
	if err != nil {
		if !errors.Is(err, ErrInvalidArgument) {
			p.logger.Warn("unexpected payment error", "customerId", req.CustomerID, "error", err)
		}
		return rejected(err.Error())
	}
	return result
}
