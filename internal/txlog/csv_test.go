package txlog

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdbank-dev/gdbank/internal/model"
)

func sampleTx() model.Transaction {
	return model.Transaction{
		ID:           "a2b9c9a0-0000-4000-8000-000000000001",
		Timestamp:    time.Date(2025, 4, 2, 14, 30, 0, 0, time.UTC),
		Account:      1001,
		Action:       model.ActionWithdraw,
		Amount:       decimal.RequireFromString("250.00"),
		BalanceAfter: decimal.RequireFromString("-160.00"),
		Note:         "overdraft used",
	}
}

func TestMarshalUnmarshalTransaction(t *testing.T) {
	tx := sampleTx()

	row := MarshalTransaction(tx)
	require.Len(t, row, numFields)
	assert.Equal(t, "250.00", row[colAmount])
	assert.Equal(t, "-160.00", row[colBalanceAfter])
	assert.Equal(t, "2025-04-02 14:30:00", row[colTimestamp])

	got, err := UnmarshalTransaction(row)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)
	assert.Equal(t, tx.Account, got.Account)
	assert.Equal(t, tx.Action, got.Action)
	assert.True(t, got.Amount.Equal(tx.Amount))
	assert.True(t, got.BalanceAfter.Equal(tx.BalanceAfter))
}

func TestUnmarshalTransactionErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(row []string)
	}{
		{"bad timestamp", func(r []string) { r[colTimestamp] = "yesterday" }},
		{"bad account", func(r []string) { r[colAccount] = "abc" }},
		{"bad amount", func(r []string) { r[colAmount] = "ten" }},
		{"bad balance", func(r []string) { r[colBalanceAfter] = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := MarshalTransaction(sampleTx())
			tt.mutate(row)
			_, err := UnmarshalTransaction(row)
			assert.Error(t, err)
		})
	}

	_, err := UnmarshalTransaction([]string{"too", "short"})
	assert.Error(t, err)
}

func TestWriteReadTransactions(t *testing.T) {
	txs := []model.Transaction{sampleTx()}
	second := sampleTx()
	second.ID = "a2b9c9a0-0000-4000-8000-000000000002"
	second.Action = model.ActionOverdraftFee
	second.Amount = decimal.RequireFromString("10.00")
	txs = append(txs, second)

	var buf bytes.Buffer
	require.NoError(t, WriteTransactions(&buf, txs))
	assert.True(t, strings.HasPrefix(buf.String(), Header))

	got, bad, err := ReadTransactions(&buf)
	require.NoError(t, err)
	assert.Empty(t, bad)
	require.Len(t, got, 2)
	assert.Equal(t, model.ActionOverdraftFee, got[1].Action)
}

func TestReadTransactionsReportsBadRows(t *testing.T) {
	input := Header + "\n" +
		strings.Join(MarshalTransaction(sampleTx()), ",") + "\n" +
		"garbage,row\n"

	got, bad, err := ReadTransactions(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, []int{3}, bad, "bad rows reported by physical line")
}
