package payments

import "strings"

func hasAnyPrefix(card string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(card, p) {
			return true
		}
	}
	return false
}

// luhnValid runs the mod-10 checksum over a digit-only card number.
func luhnValid(card string) bool {
	sum := 0
	double := false
	for i := len(card) - 1; i >= 0; i-- {
		d := int(card[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// screen applies the pre-gateway fraud heuristics. ok is false when the
// request must be refused with the returned result.
func (p *Processor) screen(card string) (PaymentResult, bool) {
	if hasAnyPrefix(card, p.rules.FraudPrefixes) {
		return rejected(MessageSuspectedFraud), false
	}
	if !luhnValid(card) {
		return rejected(MessageChecksumFailed), false
	}
	return PaymentResult{}, true
}
