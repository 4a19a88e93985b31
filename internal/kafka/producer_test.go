package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/trade-journal/internal/models"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublishTransactionRecorded(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "journal-events"}

	tx := &models.Transaction{ID: 4, UserID: 9, Type: models.TransactionTypeDeposit, Amount: decimal.RequireFromString("250.00")}
	require.NoError(t, p.PublishTransactionRecorded(context.Background(), tx))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "9", string(w.msgs[0].Key))

	var event models.JournalEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &event))
	assert.Equal(t, models.EventTransactionRecorded, event.EventType)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, int64(9), event.UserID)
	require.NotNil(t, event.Transaction)
	assert.True(t, tx.Amount.Equal(event.Transaction.Amount))
	assert.Nil(t, event.DailyTrade)
}

func TestPublishDailyTradeUpserted(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "journal-events"}

	day, err := models.ParseDay("2024-03-15")
	require.NoError(t, err)
	d := &models.DailyTrade{ID: 2, UserID: 5, TradeDate: day, Profit: decimal.NewFromInt(20), ReasonProfit: "patience"}
	require.NoError(t, p.PublishDailyTradeUpserted(context.Background(), d))

	var event models.JournalEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &event))
	assert.Equal(t, models.EventDailyTradeUpserted, event.EventType)
	require.NotNil(t, event.DailyTrade)
	assert.Equal(t, "2024-03-15", event.DailyTrade.Day())
	assert.Equal(t, "patience", event.DailyTrade.ReasonProfit)
}

func TestPublishEventIDsAreUnique(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w}

	tx := &models.Transaction{UserID: 1, Type: models.TransactionTypeWithdraw, Amount: decimal.NewFromInt(1)}
	require.NoError(t, p.PublishTransactionRecorded(context.Background(), tx))
	require.NoError(t, p.PublishTransactionRecorded(context.Background(), tx))

	var a, b models.JournalEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &a))
	require.NoError(t, json.Unmarshal(w.msgs[1].Value, &b))
	assert.NotEqual(t, a.ID, b.ID)
}

func TestPublishWrapsWriteErrors(t *testing.T) {
	p := &Producer{writer: &fakeWriter{err: errors.New("broker down")}}

	err := p.PublishTransactionRecorded(context.Background(), &models.Transaction{UserID: 1})
	assert.ErrorContains(t, err, "failed to write message to kafka")
}

func TestProducerClose(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w}
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
