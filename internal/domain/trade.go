package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeRecord is a completed trade. Trades are append-only.
type TradeRecord struct {
	TradeID     string          `json:"trade_id"`   // deterministic hash
	UnicornID   string          `json:"unicorn_id"` // must exist when the trade is appended
	CompletedAt time.Time       `json:"completed_at"`
	Value       decimal.Decimal `json:"value"`
}
