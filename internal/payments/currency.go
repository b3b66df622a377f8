package payments

import (
	"github.com/shopspring/decimal"
	"strings"
)

const BaseCurrency = "USD"

// usdRates are bookkeeping rates only; they never feed a status decision.
var usdRates = map[string]decimal.Decimal{
	"USD": decimal.NewFromInt(1),
	"EUR": decimal.RequireFromString("1.08"),
	"GBP": decimal.RequireFromString("1.27"),
	"JPY": decimal.RequireFromString("0.0067"),
	"RUB": decimal.RequireFromString("0.011"),
}

// NormalizeCurrency upper-cases the code and maps unsupported codes to USD.
func NormalizeCurrency(currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if _, ok := usdRates[code]; !ok {
		return BaseCurrency
	}
	return code
}

// ConvertToUSD returns the USD equivalent of amount, in whole minor units,
// and the currency code the conversion actually used.
func ConvertToUSD(amount int64, currency string) (int64, string) {
	code := NormalizeCurrency(currency)
	usd := decimal.NewFromInt(amount).Mul(usdRates[code]).Round(0)
	return usd.IntPart(), code
}
