package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

const testSecret = "dummy_secret"

// mutateAt flips the byte at i to a different printable character.
func mutateAt(s string, i int) string {
	b := []byte(s)
	if b[i] == 'a' {
		b[i] = 'b'
	} else {
		b[i] = 'a'
	}
	return string(b)
}

func TestSign_MatchesHMACSHA256(t *testing.T) {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte("order_9A33XWu170gUtm|pay_29QQoUBi66xm2f"))
	want := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, Sign(testSecret, "order_9A33XWu170gUtm", "pay_29QQoUBi66xm2f"))
	assert.Len(t, want, 64)
}

func TestVerifySignature(t *testing.T) {
	orderID := "order_9A33XWu170gUtm"
	paymentID := "pay_29QQoUBi66xm2f"
	sig := Sign(testSecret, orderID, paymentID)

	t.Run("Valid", func(t *testing.T) {
		assert.True(t, VerifySignature(testSecret, orderID, paymentID, sig))
	})

	t.Run("WrongSecret", func(t *testing.T) {
		assert.False(t, VerifySignature("other", orderID, paymentID, sig))
	})

	t.Run("Empty", func(t *testing.T) {
		assert.False(t, VerifySignature(testSecret, orderID, paymentID, ""))
	})

	t.Run("UppercaseHexRejected", func(t *testing.T) {
		upper := []byte(sig)
		for i, c := range upper {
			if c >= 'a' && c <= 'f' {
				upper[i] = c - 32
			}
		}
		if string(upper) != sig {
			assert.False(t, VerifySignature(testSecret, orderID, paymentID, string(upper)))
		}
	})

	t.Run("AnySingleCharacterMutationOfSignature", func(t *testing.T) {
		for i := range sig {
			assert.False(t, VerifySignature(testSecret, orderID, paymentID, mutateAt(sig, i)), "index %d", i)
		}
	})

	t.Run("AnySingleCharacterMutationOfOrderID", func(t *testing.T) {
		for i := range orderID {
			assert.False(t, VerifySignature(testSecret, mutateAt(orderID, i), paymentID, sig), "index %d", i)
		}
	})

	t.Run("AnySingleCharacterMutationOfPaymentID", func(t *testing.T) {
		for i := range paymentID {
			assert.False(t, VerifySignature(testSecret, orderID, mutateAt(paymentID, i), sig), "index %d", i)
		}
	})

	t.Run("SeparatorMatters", func(t *testing.T) {
		// "a|bc" and "ab|c" must not collide.
		assert.NotEqual(t, Sign(testSecret, "a", "bc"), Sign(testSecret, "ab", "c"))
	})
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"708", 70800},
		{"404.00", 40400},
		{"0.01", 1},
		{"19.994", 1999},
		{"19.995", 2000},
		{"1.005", 101},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ToMinorUnits(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestProof_Complete(t *testing.T) {
	assert.True(t, Proof{OrderID: "o", PaymentID: "p", Signature: "s"}.Complete())
	assert.False(t, Proof{OrderID: "o", PaymentID: "p"}.Complete())
	assert.False(t, Proof{}.Complete())
}
