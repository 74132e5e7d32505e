package bingo

import (
	"math/rand"
)

const (
	codeLength   = 6
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeAttempts = 32
)

// newCode draws session codes until one is not taken.
func newCode(rnd *rand.Rand, taken func(string) bool) (string, error) {
	buf := make([]byte, codeLength)
	for attempt := 0; attempt < codeAttempts; attempt++ {
		for i := range buf {
			buf[i] = codeAlphabet[rnd.Intn(len(codeAlphabet))]
		}
		if code := string(buf); !taken(code) {
			return code, nil
		}
	}
	return "", ErrCodeSpace
}
