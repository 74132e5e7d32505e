package bingo

import (
	"math/rand"
	"strings"
	"time"
)

// 乱数はカードのシャッフルとセッションコードの生成に使用
func createLocalRandGenerator() *rand.Rand {
	source := rand.NewSource(time.Now().UnixNano())
	return rand.New(source)
}

// NormalizeCode trims the code a guest typed and upper-cases it.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
