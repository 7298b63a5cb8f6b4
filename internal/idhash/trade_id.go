package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(unicorn_id|completed_at_ms|value|seq)
// Returns the base58-encoded hash (43 or 44 characters).
func ComputeTradeID(
	unicornID string,
	completedAtMs int64,
	value decimal.Decimal,
	seq int,
) string {
	data := fmt.Sprintf("%s|%d|%s|%d",
		unicornID,
		completedAtMs,
		value.String(),
		seq,
	)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}
