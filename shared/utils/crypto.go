package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	lowerChars = "abcdefghijkmnopqrstuvwxyz"
	upperChars = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	digitChars = "23456789"
)

// RandomHex returns n cryptographically random bytes, hex encoded (2n characters).
func RandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func randomIndex(n int) int {
	i, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return int(i.Int64())
}

// GeneratePassword returns a random password of at least three characters with
// lower case, upper case and digits, skipping look-alikes (0, O, I, l, 1).
func GeneratePassword(length int) string {
	length = max(length, 3)
	all := lowerChars + upperChars + digitChars

	b := make([]byte, length)
	b[0] = lowerChars[randomIndex(len(lowerChars))]
	b[1] = upperChars[randomIndex(len(upperChars))]
	b[2] = digitChars[randomIndex(len(digitChars))]
	for i := 3; i < length; i++ {
		b[i] = all[randomIndex(len(all))]
	}
	// Fisher-Yates so the guaranteed classes are not always in front
	for i := length - 1; i > 0; i-- {
		j := randomIndex(i + 1)
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}
