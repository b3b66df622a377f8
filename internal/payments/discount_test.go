package payments

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math"
	"testing"
)

func TestCalculateLoyaltyDiscount(t *testing.T) {
	p, _ := newTestProcessor(t, DefaultRules())

	tests := []struct {
		name   string
		points int64
		base   int64
		want   int64
	}{
		{"zero points", 0, 10_000, 0},
		{"negative points", -50, 10_000, 0},
		{"one point", 1, 10_000, 500},
		{"under 1000", 999, 10_000, 500},
		{"at 1000", 1_000, 10_000, 1_000},
		{"at 2000", 2_000, 10_000, 1_000},
		{"at 4999", 4_999, 10_000, 1_000},
		{"at 5000", 5_000, 10_000, 1_500},
		{"at 9999", 9_999, 10_000, 1_500},
		{"at 10000", 10_000, 10_000, 2_000},
		{"over 10000", 12_000, 10_000, 2_000},
		{"zero base", 12_000, 0, 0},
		{"truncates", 999, 19, 0},
		{"capped", 999_999, 999_999, 5_000},
		{"capped huge", 999_999_999, 999_999_999, 5_000},
		{"no overflow", math.MaxInt64, math.MaxInt64, 5_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.CalculateLoyaltyDiscount(tt.points, tt.base)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculateLoyaltyDiscount_NegativeBase(t *testing.T) {
	p, _ := newTestProcessor(t, DefaultRules())

	_, err := p.CalculateLoyaltyDiscount(1_000, -500)
	assert.ErrorIs(t, err, ErrNegativeBaseAmount)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCalculateLoyaltyDiscount_ConfiguredCap(t *testing.T) {
	rules := DefaultRules()
	rules.MaxLoyaltyDiscount = 750
	p, _ := newTestProcessor(t, rules)

	got, err := p.CalculateLoyaltyDiscount(2_000, 10_000)
	require.NoError(t, err)
	assert.Equal(t, int64(750), got)
}
