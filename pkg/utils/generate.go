package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// ==================== UUID ====================

func GenerateUUIDString() string {
	return uuid.New().String()
}

// ==================== EMAIL ====================

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ==================== OTP ====================

// GenerateOTP returns a numeric code of the given length drawn from crypto/rand.
func GenerateOTP(length int) (string, error) {
	if length <= 0 {
		length = 6
	}

	ten := big.NewInt(10)
	otp := make([]byte, length)
	for i := range otp {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate otp digit: %w", err)
		}
		otp[i] = byte('0' + n.Int64())
	}

	return string(otp), nil
}
