package matching

import "strings"

// PhoneNormalizer canonicalizes local phone numbers into one international,
// digit-only form. Identity matching is advisory, so malformed input degrades
// to the stripped digits instead of failing.
type PhoneNormalizer struct {
	CountryCode      string `toml:"country_code"`
	TrunkPrefix      string `toml:"trunk_prefix"`
	SubscriberLength int    `toml:"subscriber_length"`
}

// DefaultPhoneNormalizer uses Ugandan numbering: +256, trunk 0, 9-digit subscribers.
func DefaultPhoneNormalizer() PhoneNormalizer {
	return PhoneNormalizer{
		CountryCode:      "256",
		TrunkPrefix:      "0",
		SubscriberLength: 9,
	}
}

// Normalize returns the canonical form of raw, or "" when raw has no digits.
func (n PhoneNormalizer) Normalize(raw string) string {
	digits := stripNonDigits(raw)
	if digits == "" {
		return ""
	}

	// 00<cc> international access prefix
	if n.CountryCode != "" && strings.HasPrefix(digits, "00"+n.CountryCode) {
		return digits[2:]
	}

	switch {
	case n.CountryCode != "" && strings.HasPrefix(digits, n.CountryCode):
		return digits
	case n.TrunkPrefix != "" && strings.HasPrefix(digits, n.TrunkPrefix):
		return n.CountryCode + strings.TrimPrefix(digits, n.TrunkPrefix)
	case n.SubscriberLength > 0 && len(digits) == n.SubscriberLength:
		return n.CountryCode + digits
	default:
		return digits
	}
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
