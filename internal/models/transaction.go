package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a cash movement
type TransactionType string

// Transaction type constants
const (
	TransactionTypeDeposit  TransactionType = "deposit"
	TransactionTypeWithdraw TransactionType = "withdraw"
)

// ParseTransactionType validates a raw transaction type
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(s); t {
	case TransactionTypeDeposit, TransactionTypeWithdraw:
		return t, nil
	default:
		return "", fmt.Errorf("unknown transaction type: %q", s)
	}
}

// Transaction is an immutable deposit or withdrawal
type Transaction struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Type      TransactionType `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}
