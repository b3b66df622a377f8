package payments

import (
	"context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SimulatedGateway is a deterministic stand-in for a payment network. Its
// outcome depends only on the amount and the card prefix.
type SimulatedGateway struct {
	timeoutDivisor            int64
	insufficientFundsPrefixes []string
	blockedPrefixes           []string
}

func NewSimulatedGateway(rules Rules) *SimulatedGateway {
	return &SimulatedGateway{
		timeoutDivisor:            rules.TimeoutDivisor,
		insufficientFundsPrefixes: rules.InsufficientFundsPrefixes,
		blockedPrefixes:           rules.BlockedPrefixes,
	}
}

func (g *SimulatedGateway) Charge(ctx context.Context, amount int64, card string) PaymentResult {
	tracer := otel.Tracer("simulated-gateway")
	_, span := tracer.Start(ctx, "gateway-charge", trace.WithAttributes(
		attribute.Int64("payment.amount", amount),
	))
	defer span.End()

	result := g.decide(amount, card)

	span.SetAttributes(attribute.String("gateway.status", string(result.Status)))
	if result.Status != StatusSuccess {
		span.SetStatus(codes.Error, result.Message)
	} else {
		span.SetStatus(codes.Ok, result.Message)
	}

	return result
}

func (g *SimulatedGateway) decide(amount int64, card string) PaymentResult {
	switch {
	case amount%g.timeoutDivisor == 0:
		return failed(MessageGatewayTimeout)
	case hasAnyPrefix(card, g.insufficientFundsPrefixes):
		return failed(MessageInsufficientFunds)
	case hasAnyPrefix(card, g.blockedPrefixes):
		return failed(MessageCardBlocked)
	default:
		return success()
	}
}
