package common

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// Verification codes are 6-digit numeric strings in [100000, 999999].
const (
	verificationCodeMin  = 100000
	verificationCodeSpan = 900000
)

// MakeVerificationCode returns a uniformly random 6-digit verification code.
// The code never has a leading zero, so its string form is always exactly
// six characters.
func MakeVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(verificationCodeSpan))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", verificationCodeMin+n.Int64()), nil
}

// MakeRandHexString generates a random hexadecimal string from size random
// bytes. The resulting string is twice as long as size, since each byte
// expands to two hex characters.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
