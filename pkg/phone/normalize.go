// Package phone canonicalizes phone numbers to E.164 and derives the textual
// variants a CRM might have stored them under.
package phone

import (
	"regexp"
	"strings"
)

var nonDigits = regexp.MustCompile(`\D+`)

// Digits strips every non-digit character from s.
func Digits(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// Normalize converts raw to E.164. It returns false when raw holds no digits.
//
// Ten digits are treated as a North American number and prefixed with +1.
// Eleven digits starting with 1 are prefixed with +. Any other length is
// returned as-is when raw already starts with "+", otherwise as "+" + digits.
func Normalize(raw string) (string, bool) {
	digits := Digits(raw)
	if digits == "" {
		return "", false
	}
	switch {
	case len(digits) == 10:
		return "+1" + digits, true
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits, true
	case strings.HasPrefix(raw, "+"):
		return raw, true
	default:
		return "+" + digits, true
	}
}

// Last10 returns the trailing ten digits of s, or all of them when fewer.
func Last10(s string) string {
	d := Digits(s)
	if len(d) <= 10 {
		return d
	}
	return d[len(d)-10:]
}

// Local10 returns the ten-digit North American subscriber number for s, or ""
// when s is not a NANP number.
func Local10(s string) string {
	d := Digits(s)
	switch {
	case len(d) == 11 && d[0] == '1':
		return d[1:]
	case len(d) == 10:
		return d
	default:
		return ""
	}
}

// SameNumber reports whether candidate refers to the number whose full digit
// string is targetDigits. A shared last-ten-digit suffix also counts, so a
// missing or extra country code does not prevent a match.
func SameNumber(candidate, targetDigits string) bool {
	c := Digits(candidate)
	if c == "" || targetDigits == "" {
		return false
	}
	if c == targetDigits {
		return true
	}
	if len(c) < 10 || len(targetDigits) < 10 {
		return false
	}
	return Last10(c) == Last10(targetDigits)
}
