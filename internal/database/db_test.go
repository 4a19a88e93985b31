package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/trade-journal/internal/models"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewWithConn(conn), mock
}

func TestCreateUserMapsUniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("alice", "hash", sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	err := db.CreateUser(context.Background(), &models.User{Username: "alice", PasswordHash: "hash"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserWrapsOtherErrors(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(errors.New("connection reset"))

	err := db.CreateUser(context.Background(), &models.User{Username: "alice", PasswordHash: "hash"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUsernameTaken)
	assert.Contains(t, err.Error(), "failed to create user")
}

func TestGetUserByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("FROM users").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "created_at"}))

	_, err := db.GetUserByID(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCashTotals(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("FROM transactions").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"deposits", "withdrawals"}).AddRow("1000.00", "200.00"))

	totals, err := db.GetCashTotals(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1000").Equal(totals.Deposits))
	assert.True(t, decimal.RequireFromString("200").Equal(totals.Withdrawals))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTradeTotalsError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("FROM daily_trades").
		WithArgs(int64(7)).
		WillReturnError(errors.New("boom"))

	_, err := db.GetTradeTotals(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get trade totals")
}

func TestGetTransactionsByUserRejectsUnknownType(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "type", "amount", "created_at"}).
		AddRow(int64(1), int64(7), "deposit", "10.00", time.Now()).
		AddRow(int64(2), int64(7), "transfer", "5.00", time.Now())
	mock.ExpectQuery("FROM transactions").WithArgs(int64(7)).WillReturnRows(rows)

	_, err := db.GetTransactionsByUser(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transfer")
}

func TestUpsertDailyTradeBindsCalendarDay(t *testing.T) {
	db, mock := newMockDB(t)

	day, err := models.ParseDay("2024-03-15")
	require.NoError(t, err)
	created := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("ON CONFLICT \\(user_id, trade_date\\) DO UPDATE").
		WithArgs(int64(7), "2024-03-15", sqlmock.AnyArg(), sqlmock.AnyArg(), "why up", "why down", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(3), created))

	rec := &models.DailyTrade{
		UserID: 7, TradeDate: day,
		Profit: decimal.NewFromInt(1), Loss: decimal.Zero,
		ReasonProfit: "why up", ReasonLoss: "why down",
	}
	require.NoError(t, db.UpsertDailyTrade(context.Background(), rec))
	assert.Equal(t, int64(3), rec.ID)
	assert.Equal(t, created, rec.CreatedAt)
	assert.False(t, rec.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDailyTradeNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	day, err := models.ParseDay("2024-03-15")
	require.NoError(t, err)

	mock.ExpectQuery("FROM daily_trades").
		WithArgs(int64(7), "2024-03-15").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "trade_date", "profit", "loss",
			"reason_profit", "reason_loss", "created_at", "updated_at",
		}))

	_, err = db.GetDailyTrade(context.Background(), 7, day)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListTablesAndCountUsers(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("FROM information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).
			AddRow("daily_trades").AddRow("transactions").AddRow("users"))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(4)))

	tables, err := db.ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"daily_trades", "transactions", "users"}, tables)

	count, err := db.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
