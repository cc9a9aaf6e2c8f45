package orders

import (
	"fmt"
	"math/rand"
	"time"
)

const orderNumAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewOrderNumber returns a human-readable order number of the form
// ORD-{unix_millis}-{7 uppercase alphanumerics}. Uniqueness is probabilistic;
// there is deliberately no constraint backing it at the storage layer.
func NewOrderNumber() string {
	suffix := make([]byte, 7)
	for i := range suffix {
		suffix[i] = orderNumAlphabet[rand.Intn(len(orderNumAlphabet))]
	}
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), suffix)
}
