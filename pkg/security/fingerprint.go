package security

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint derives the uniqueness key for a sensitive identifier such as a
// card or bank account number: the lower-case hex SHA-256 of the raw bytes.
// The input is hashed as given; callers normalize before fingerprinting.
func Fingerprint(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// MaskNumber keeps only the last four characters of value visible.
func MaskNumber(value string) string {
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}

// ValidLuhn reports whether number passes the Luhn checksum. Non-digit input
// is rejected.
func ValidLuhn(number string) bool {
	if number == "" {
		return false
	}
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
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
