package database

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/trade-journal/internal/models"
)

// CashTotals holds the summed cash movements of one user
type CashTotals struct {
	Deposits    decimal.Decimal `json:"deposits"`
	Withdrawals decimal.Decimal `json:"withdrawals"`
}

// CreateTransaction records a deposit or withdrawal. The timestamp is always
// assigned here, never taken from the caller.
func (db *DB) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	query := `
		INSERT INTO transactions (user_id, type, amount, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	now := time.Now().UTC()

	err := db.conn.QueryRowContext(ctx, query, t.UserID, string(t.Type), t.Amount, now).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	t.Timestamp = now
	return nil
}

// GetTransactionsByUser retrieves a user's transactions, newest first
func (db *DB) GetTransactionsByUser(ctx context.Context, userID int64) ([]*models.Transaction, error) {
	query := `
		SELECT id, user_id, type, amount, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := db.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		var kind string
		if err := rows.Scan(&t.ID, &t.UserID, &kind, &t.Amount, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if t.Type, err = models.ParseTransactionType(kind); err != nil {
			return nil, fmt.Errorf("failed to scan transaction %d: %w", t.ID, err)
		}
		txs = append(txs, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	return txs, nil
}

// GetCashTotals sums deposits and withdrawals for a user. Both are zero when
// the user has no transactions.
func (db *DB) GetCashTotals(ctx context.Context, userID int64) (*CashTotals, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'deposit'), 0) AS deposits,
			COALESCE(SUM(amount) FILTER (WHERE type = 'withdraw'), 0) AS withdrawals
		FROM transactions
		WHERE user_id = $1
	`
	var totals CashTotals
	err := db.conn.QueryRowContext(ctx, query, userID).Scan(&totals.Deposits, &totals.Withdrawals)
	if err != nil {
		return nil, fmt.Errorf("failed to get cash totals: %w", err)
	}
	return &totals, nil
}
