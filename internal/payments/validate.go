package payments

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidArgument = errors.New("invalid argument")

var (
	ErrInvalidAmount      = fmt.Errorf("%w: amount must be positive", ErrInvalidArgument)
	ErrInvalidCardNumber  = fmt.Errorf("%w: card number must be %d-%d digits", ErrInvalidArgument, MinCardNumberLength, MaxCardNumberLength)
	ErrInvalidCurrency    = fmt.Errorf("%w: currency must not be blank", ErrInvalidArgument)
	ErrInvalidCustomerID  = fmt.Errorf("%w: customer id must not be blank", ErrInvalidArgument)
	ErrInvalidExpiryMonth = fmt.Errorf("%w: expiry month must be between 1 and 12", ErrInvalidArgument)
	ErrCardExpired        = fmt.Errorf("%w: card is expired", ErrInvalidArgument)
	ErrNegativeBaseAmount = fmt.Errorf("%w: base amount must not be negative", ErrInvalidArgument)
)

// validate checks the caller contract in a fixed order; the first violation wins.
func validate(req PaymentRequest, now time.Time) error {
	if req.Amount <= 0 {
		return ErrInvalidAmount
	}

	if !validCardNumber(req.CardNumber) {
		return ErrInvalidCardNumber
	}

	if isBlank(req.Currency) {
		return ErrInvalidCurrency
	}

	if isBlank(req.CustomerID) {
		return ErrInvalidCustomerID
	}

	if req.ExpiryMonth < 1 || req.ExpiryMonth > 12 {
		return ErrInvalidExpiryMonth
	}

	if expired(req.ExpiryMonth, req.ExpiryYear, now) {
		return fmt.Errorf("%w (expiry %02d/%d)", ErrCardExpired, req.ExpiryMonth, req.ExpiryYear)
	}

	return nil
}

func validCardNumber(card string) bool {
	if card == "" || !isDigits(card) {
		return false
	}
	return len(card) >= MinCardNumberLength && len(card) <= MaxCardNumberLength
}

// expired reports whether month/year lies strictly before the current month.
// A card stays valid through its whole expiry month.
func expired(month, year int, now time.Time) bool {
	if year != now.Year() {
		return year < now.Year()
	}
	return month < int(now.Month())
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
