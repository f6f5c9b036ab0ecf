// Package ident generates and validates the external identifier formats
// used across the API: usr-/tan- prefixed tokens and 8-digit account
// numbers starting with 01.
package ident

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

const (
	// AccountNumberPrefix is the fixed two-digit prefix of every account number.
	AccountNumberPrefix = "01"
	// AccountNumberDigits is the width of the numeric suffix.
	AccountNumberDigits = 6
)

var accountNumberPattern = regexp.MustCompile(`^01\d{6}$`)

// GenerateID generates a unique ID with the given prefix, e.g. usr-a1B2c3D4e5.
func GenerateID(prefix string) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 10

	result := make([]byte, length)
	for i := range result {
		num, _ := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		result[i] = charset[num.Int64()]
	}

	return fmt.Sprintf("%s-%s", prefix, string(result))
}

// RandomAccountNumber draws a uniformly random account number in the valid range.
func RandomAccountNumber() string {
	num, _ := rand.Int(rand.Reader, big.NewInt(1000000))
	return fmt.Sprintf("%s%0*d", AccountNumberPrefix, AccountNumberDigits, num.Int64())
}

// ValidAccountNumber reports whether s matches the ^01\d{6}$ format rule.
func ValidAccountNumber(s string) bool {
	return accountNumberPattern.MatchString(s)
}

// ValidUserID reports whether s is a usr- prefixed identifier.
func ValidUserID(s string) bool {
	return strings.HasPrefix(s, "usr-")
}

// ValidTransactionID reports whether s is a tan- prefixed identifier.
func ValidTransactionID(s string) bool {
	return strings.HasPrefix(s, "tan-")
}
