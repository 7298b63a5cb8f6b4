package activity

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"unicorn-dashboard/internal/domain"
)

// ListingText describes a unicorn put up for sale.
func ListingText(u *domain.Unicorn) string {
	return fmt.Sprintf("New listing: %s (%s)", u.Name, u.ID)
}

// RegistrationText describes a newly registered unicorn.
func RegistrationText(u *domain.Unicorn) string {
	return "New registration: " + u.Name
}

// BidText describes a unicorn moving to reserved.
func BidText(u *domain.Unicorn) string {
	return "Bid received: " + u.Name
}

// SaleText describes a unicorn marked sold without a recorded trade.
func SaleText(u *domain.Unicorn) string {
	return fmt.Sprintf("Sold: %s (%s)", u.Name, u.ID)
}

// TradeText describes a completed trade.
func TradeText(t *domain.TradeRecord) string {
	return "Trade completed: " + dollars(t.Value)
}

// AlertText describes a breed-level price move, e.g. "Golden breed +5%".
func AlertText(b domain.Breed, changePct float64) string {
	sign := "+"
	if changePct < 0 {
		sign = "-"
	}
	return fmt.Sprintf("Price alert: %s breed %s%d%%", b, sign, int(math.Round(math.Abs(changePct))))
}

func dollars(v decimal.Decimal) string {
	return "$" + humanize.Comma(v.Round(0).IntPart())
}
