package usecase

import (
	"crypto/rand"
	"io"
)

// keyCodeAlphabet avoids ambiguous characters like O/0 and I/1.
// Its length divides 256, so the byte mapping below is unbiased.
const keyCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// generateKeyCode creates a random, human-readable registration key code.
// Format: XXXX-XXXX-XXXX
func generateKeyCode() (string, error) {
	const codeLength = 12

	buffer := make([]byte, codeLength)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", err
	}
	for i := 0; i < codeLength; i++ {
		buffer[i] = keyCodeAlphabet[int(buffer[i])%len(keyCodeAlphabet)]
	}
	return string(buffer[0:4]) + "-" + string(buffer[4:8]) + "-" + string(buffer[8:12]), nil
}
