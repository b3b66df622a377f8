package payments

import (
	"errors"
	"fmt"
	"slices"
)

const (
	DefaultTransactionLimit   int64 = 100_000
	DefaultTimeoutDivisor     int64 = 17
	DefaultMaxLoyaltyDiscount int64 = 5_000

	MinCardNumberLength = 13
	MaxCardNumberLength = 19
)

var (
	DefaultFraudPrefixes             = []string{"1111", "4444", "5500", "5555", "7777", "9999"}
	DefaultInsufficientFundsPrefixes = []string{"5500"}
	DefaultBlockedPrefixes           = []string{"4444"}
)

var ErrInvalidRules = errors.New("invalid processing rules")

// Rules are the fixed decision constants of the processor. The fraud prefix
// check runs before the gateway, so a prefix present both in FraudPrefixes
// and in one of the gateway lists always ends as REJECTED.
type Rules struct {
	TransactionLimit          int64
	TimeoutDivisor            int64
	MaxLoyaltyDiscount        int64
	FraudPrefixes             []string
	InsufficientFundsPrefixes []string
	BlockedPrefixes           []string
}

func DefaultRules() Rules {
	return Rules{
		TransactionLimit:          DefaultTransactionLimit,
		TimeoutDivisor:            DefaultTimeoutDivisor,
		MaxLoyaltyDiscount:        DefaultMaxLoyaltyDiscount,
		FraudPrefixes:             slices.Clone(DefaultFraudPrefixes),
		InsufficientFundsPrefixes: slices.Clone(DefaultInsufficientFundsPrefixes),
		BlockedPrefixes:           slices.Clone(DefaultBlockedPrefixes),
	}
}

func (r Rules) Validate() error {
	if r.TransactionLimit <= 0 {
		return fmt.Errorf("%w: transaction limit must be positive, got %d", ErrInvalidRules, r.TransactionLimit)
	}
	if r.TimeoutDivisor <= 0 {
		return fmt.Errorf("%w: timeout divisor must be positive, got %d", ErrInvalidRules, r.TimeoutDivisor)
	}
	if r.MaxLoyaltyDiscount < 0 {
		return fmt.Errorf("%w: loyalty discount cap must not be negative, got %d", ErrInvalidRules, r.MaxLoyaltyDiscount)
	}

	lists := []struct {
		name     string
		prefixes []string
	}{
		{"fraud", r.FraudPrefixes},
		{"insufficient funds", r.InsufficientFundsPrefixes},
		{"blocked", r.BlockedPrefixes},
	}
	for _, list := range lists {
		for _, p := range list.prefixes {
			if p == "" || !isDigits(p) {
				return fmt.Errorf("%w: %s prefix %q must be a non-empty digit string", ErrInvalidRules, list.name, p)
			}
		}
	}

	return nil
}

func (r Rules) clone() Rules {
	r.FraudPrefixes = slices.Clone(r.FraudPrefixes)
	r.InsufficientFundsPrefixes = slices.Clone(r.InsufficientFundsPrefixes)
	r.BlockedPrefixes = slices.Clone(r.BlockedPrefixes)
	return r
}
