package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/trade-journal/internal/models"
)

// TradeTotals holds the summed daily profit and loss of one user
type TradeTotals struct {
	Profit decimal.Decimal `json:"profit"`
	Loss   decimal.Decimal `json:"loss"`
}

// UpsertDailyTrade creates the record for (user, trade_date) or overwrites the
// profit, loss and both reasons of the existing one.
func (db *DB) UpsertDailyTrade(ctx context.Context, d *models.DailyTrade) error {
	query := `
		INSERT INTO daily_trades (
			user_id, trade_date, profit, loss, reason_profit, reason_loss, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, trade_date) DO UPDATE SET
			profit = EXCLUDED.profit,
			loss = EXCLUDED.loss,
			reason_profit = EXCLUDED.reason_profit,
			reason_loss = EXCLUDED.reason_loss,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`
	now := time.Now().UTC()

	err := db.conn.QueryRowContext(ctx, query,
		d.UserID, d.Day(), d.Profit, d.Loss, d.ReasonProfit, d.ReasonLoss, now, now,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert daily trade: %w", err)
	}
	d.UpdatedAt = now
	return nil
}

// GetDailyTrade retrieves a user's record for one calendar day
func (db *DB) GetDailyTrade(ctx context.Context, userID int64, day time.Time) (*models.DailyTrade, error) {
	query := `
		SELECT id, user_id, trade_date, profit, loss, reason_profit, reason_loss, created_at, updated_at
		FROM daily_trades
		WHERE user_id = $1 AND trade_date = $2
	`
	var d models.DailyTrade
	err := db.conn.QueryRowContext(ctx, query, userID, day.Format(models.DateLayout)).Scan(
		&d.ID, &d.UserID, &d.TradeDate, &d.Profit, &d.Loss,
		&d.ReasonProfit, &d.ReasonLoss, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("daily trade %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily trade: %w", err)
	}
	return &d, nil
}

// GetDailyTradesByUser retrieves all of a user's daily records, oldest first
func (db *DB) GetDailyTradesByUser(ctx context.Context, userID int64) ([]*models.DailyTrade, error) {
	query := `
		SELECT id, user_id, trade_date, profit, loss, reason_profit, reason_loss, created_at, updated_at
		FROM daily_trades
		WHERE user_id = $1
		ORDER BY trade_date ASC
	`
	rows, err := db.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily trades: %w", err)
	}
	defer rows.Close()

	var trades []*models.DailyTrade
	for rows.Next() {
		var d models.DailyTrade
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.TradeDate, &d.Profit, &d.Loss,
			&d.ReasonProfit, &d.ReasonLoss, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan daily trade: %w", err)
		}
		trades = append(trades, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query daily trades: %w", err)
	}
	return trades, nil
}

// GetTradeTotals sums profit and loss across all of a user's daily records
func (db *DB) GetTradeTotals(ctx context.Context, userID int64) (*TradeTotals, error) {
	query := `
		SELECT COALESCE(SUM(profit), 0), COALESCE(SUM(loss), 0)
		FROM daily_trades
		WHERE user_id = $1
	`
	var totals TradeTotals
	if err := db.conn.QueryRowContext(ctx, query, userID).Scan(&totals.Profit, &totals.Loss); err != nil {
		return nil, fmt.Errorf("failed to get trade totals: %w", err)
	}
	return &totals, nil
}
