package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateReceipt returns a receipt token for a remote payment order.
// Uniqueness is best-effort: millisecond clock plus four random digits.
func GenerateReceipt() string {
	now := time.Now().UTC()

	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		// fallback: time-based entropy
		n = big.NewInt(now.UnixNano() % 10000)
	}

	return receiptAt(now, n.Int64())
}

func receiptAt(t time.Time, suffix int64) string {
	return fmt.Sprintf("receipt_%d_%04d", t.UnixMilli(), suffix)
}
