package models

import "time"

// Journal event types
const (
	EventTransactionRecorded = "TRANSACTION_RECORDED"
	EventDailyTradeUpserted  = "DAILY_TRADE_UPSERTED"
)

// JournalEvent represents a Kafka event for committed journal writes
type JournalEvent struct {
	ID          string       `json:"id"`
	EventType   string       `json:"event_type"`
	UserID      int64        `json:"user_id"`
	Transaction *Transaction `json:"transaction,omitempty"`
	DailyTrade  *DailyTrade  `json:"daily_trade,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}
