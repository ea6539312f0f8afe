package auth

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

const (
	// StateLength is the number of characters in a generated CSRF state.
	StateLength = 16

	stateAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

var alphabetSize = big.NewInt(int64(len(stateAlphabet)))

// GenerateState returns a random alphanumeric string of [StateLength] characters, each drawn uniformly from [A-Za-z0-9].
func GenerateState() (string, error) {
	return generateState(rand.Reader, StateLength)
}

func generateState(r io.Reader, n int) (string, error) {
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(r, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		b[i] = stateAlphabet[idx.Int64()]
	}
	return string(b), nil
}
