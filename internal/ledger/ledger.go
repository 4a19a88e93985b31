// Package ledger derives account figures from journal rows.
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/trade-journal/internal/database"
	"github.com/trogers1052/trade-journal/internal/models"
)

// TotalsReader defines the aggregate queries the ledger needs
type TotalsReader interface {
	GetCashTotals(ctx context.Context, userID int64) (*database.CashTotals, error)
	GetTradeTotals(ctx context.Context, userID int64) (*database.TradeTotals, error)
	GetDailyTradesByUser(ctx context.Context, userID int64) ([]*models.DailyTrade, error)
}

// Totals are the four raw sums the balance is derived from
type Totals struct {
	Deposits    decimal.Decimal
	Withdrawals decimal.Decimal
	Profit      decimal.Decimal
	Loss        decimal.Decimal
}

// Summary is what the dashboard shows for one user
type Summary struct {
	DepositTotal  decimal.Decimal `json:"deposit_total"`
	WithdrawTotal decimal.Decimal `json:"withdraw_total"`
	ProfitTotal   decimal.Decimal `json:"profit_total"`
	LossTotal     decimal.Decimal `json:"loss_total"`
	ActiveBalance decimal.Decimal `json:"active_balance"`
	TotalPL       decimal.Decimal `json:"total_pl"`
}

// Compute derives the active balance and total P/L:
//
//	active_balance = deposits - withdrawals + profit - loss
//	total_pl       = profit - loss
func Compute(t Totals) Summary {
	totalPL := t.Profit.Sub(t.Loss)
	return Summary{
		DepositTotal:  t.Deposits,
		WithdrawTotal: t.Withdrawals,
		ProfitTotal:   t.Profit,
		LossTotal:     t.Loss,
		ActiveBalance: t.Deposits.Sub(t.Withdrawals).Add(totalPL),
		TotalPL:       totalPL,
	}
}

// Reasons are the non-empty free-text reasons of a user's daily records
type Reasons struct {
	Profit []string
	Loss   []string
}

// Service reads totals from the store and computes summaries
type Service struct {
	store TotalsReader
}

// NewService creates a new ledger Service
func NewService(store TotalsReader) *Service {
	return &Service{store: store}
}

// Summary computes the balance figures for a user
func (s *Service) Summary(ctx context.Context, userID int64) (Summary, error) {
	cash, err := s.store.GetCashTotals(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	trades, err := s.store.GetTradeTotals(ctx, userID)
	if err != nil {
		return Summary{}, err
	}

	return Compute(Totals{
		Deposits:    cash.Deposits,
		Withdrawals: cash.Withdrawals,
		Profit:      trades.Profit,
		Loss:        trades.Loss,
	}), nil
}

// Reasons collects the profit and loss reasons in store order, skipping blanks
func (s *Service) Reasons(ctx context.Context, userID int64) (Reasons, error) {
	trades, err := s.store.GetDailyTradesByUser(ctx, userID)
	if err != nil {
		return Reasons{}, err
	}

	var r Reasons
	for _, t := range trades {
		if t.ReasonProfit != "" {
			r.Profit = append(r.Profit, t.ReasonProfit)
		}
		if t.ReasonLoss != "" {
			r.Loss = append(r.Loss, t.ReasonLoss)
		}
	}
	return r, nil
}
