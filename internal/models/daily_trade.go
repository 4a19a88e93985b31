package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-day format used in paths and trade_date values
const DateLayout = "2006-01-02"

// DailyTrade is one user's profit/loss summary for a calendar day.
// Profit and Loss are non-negative magnitudes.
type DailyTrade struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"user_id"`
	TradeDate    time.Time       `json:"trade_date"`
	Profit       decimal.Decimal `json:"profit"`
	Loss         decimal.Decimal `json:"loss"`
	ReasonProfit string          `json:"reason_profit"`
	ReasonLoss   string          `json:"reason_loss"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Day returns the trade date formatted as YYYY-MM-DD
func (d *DailyTrade) Day() string {
	return d.TradeDate.Format(DateLayout)
}

// ParseDay parses a YYYY-MM-DD calendar day in UTC
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
