// Package msisdn normalizes Cameroonian subscriber numbers into the
// +237XXXXXXXXX form required by the subscription service.
package msisdn

import (
	"strings"

	apperrors "github.com/louisbranch/selfcare/internal/platform/errors"
)

// CountryCode is the international dialing code applied to local numbers.
const CountryCode = "237"

// Prefix is the full international prefix of a normalized number.
const Prefix = "+" + CountryCode

const localDigits = 9

// Normalize canonicalizes a raw subscriber number.
//
// A number that already carries the international prefix is returned
// unchanged; a number starting with the bare country code gains a "+";
// anything else is treated as a local number and gets the full prefix.
// The result must be "+237" followed by exactly nine digits.
func Normalize(raw string) (string, error) {
	candidate := raw
	switch {
	case strings.HasPrefix(raw, Prefix):
		// already international
	case strings.HasPrefix(raw, CountryCode):
		candidate = "+" + raw
	case strings.HasPrefix(raw, "+"):
		// wrong country prefix, leave as-is so validation rejects it
	default:
		candidate = Prefix + raw
	}

	if !isNormalized(candidate) {
		return "", apperrors.WithMetadata(
			apperrors.CodeMsisdnInvalidFormat,
			"phone number must be "+Prefix+" followed by nine digits",
			map[string]string{"Input": raw},
		)
	}
	return candidate, nil
}

// NormalizeGift normalizes a gift beneficiary number and rejects the
// operator's own identity.
func NormalizeGift(raw, operatorIdentity string) (string, error) {
	normalized, err := Normalize(raw)
	if err != nil {
		return "", err
	}
	if normalized == operatorIdentity {
		return "", apperrors.New(apperrors.CodeMsisdnSelfGift, "beneficiary equals the operator identity")
	}
	return normalized, nil
}

func isNormalized(value string) bool {
	if len(value) != 1+len(CountryCode)+localDigits {
		return false
	}
	if !strings.HasPrefix(value, Prefix) {
		return false
	}
	for _, ch := range value[len(Prefix):] {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
