package payments

import (
	"context"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestLuhnValid(t *testing.T) {
	valid := []string{
		"4242424242424242",
		"4111111111111111",
		"4222222222222",
		"5500000000000004",
		"378282246310005",
		"6011111111111117",
	}
	for _, card := range valid {
		assert.True(t, luhnValid(card), card)
	}

	invalid := []string{
		"4242424242424241",
		"1234567812345678",
		"4000000000000000002",
		"4444222233334444",
	}
	for _, card := range invalid {
		assert.False(t, luhnValid(card), card)
	}
}

func TestHasAnyPrefix(t *testing.T) {
	assert.True(t, hasAnyPrefix("5500123412341234", DefaultFraudPrefixes))
	assert.False(t, hasAnyPrefix("5501123412341234", DefaultFraudPrefixes))
	assert.False(t, hasAnyPrefix("5500123412341234", nil))
}

func TestSimulatedGateway_Decide(t *testing.T) {
	g := NewSimulatedGateway(DefaultRules())

	tests := []struct {
		name   string
		amount int64
		card   string
		want   PaymentResult
	}{
		{"timeout", 17, visaCard, PaymentResult{StatusFailed, MessageGatewayTimeout}},
		{"timeout before prefix", 34, "5500000000000004", PaymentResult{StatusFailed, MessageGatewayTimeout}},
		{"insufficient funds", 100, "5500000000000004", PaymentResult{StatusFailed, MessageInsufficientFunds}},
		{"blocked", 100, "4444333322221111", PaymentResult{StatusFailed, MessageCardBlocked}},
		{"success", 100, visaCard, PaymentResult{StatusSuccess, MessageCompleted}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Charge(context.Background(), tt.amount, tt.card))
		})
	}
}
