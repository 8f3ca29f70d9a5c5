package mafia

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand/v2"
	"strconv"
)

const (
	codeMin = 100000
	codeMax = 999999
)

// GenerateCode returns a uniformly random 6-digit session code in
// [100000, 999999]. Uniqueness is checked by the caller.
func GenerateCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		// fallback to math/rand if crypto fails
		return strconv.Itoa(codeMin + mrand.IntN(codeMax-codeMin+1))
	}
	return strconv.FormatInt(codeMin+n.Int64(), 10)
}

// ValidCode reports whether s has the shape of a session code.
func ValidCode(s string) bool {
	if len(s) != 6 {
		return false
	}
	n, err := strconv.Atoi(s)
	return err == nil && n >= codeMin && n <= codeMax
}
