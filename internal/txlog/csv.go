package txlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gdbank-dev/gdbank/internal/model"
)

// Header is the CSV header for transactions.csv.
const Header = "tx_id,timestamp,account_number,action,amount,balance_after,note"

const (
	numFields       = 7
	timestampFormat = "2006-01-02 15:04:05"
	colTxID         = 0
	colTimestamp    = 1
	colAccount      = 2
	colAction       = 3
	colAmount       = 4
	colBalanceAfter = 5
	colNote         = 6
)

// ReadTransactions reads all rows from a transactions.csv reader. Rows that
// fail to parse are returned separately as row numbers so the caller can
// surface them without aborting the load.
func ReadTransactions(r io.Reader) ([]model.Transaction, []int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	var (
		txs []model.Transaction
		bad []int
	)
	row := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			bad = append(bad, row)
			continue
		}
		if row == 1 && rec[colTxID] == "tx_id" {
			continue // header
		}
		tx, err := UnmarshalTransaction(rec)
		if err != nil {
			bad = append(bad, row)
			continue
		}
		txs = append(txs, tx)
	}
	return txs, bad, nil
}

// AppendTransactions appends rows to an open transactions.csv writer
// (no header).
func AppendTransactions(w io.Writer, txs []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	for i, tx := range txs {
		if err := cw.Write(MarshalTransaction(tx)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	return cw.Error()
}

// WriteTransactions writes a full transactions.csv including the header.
func WriteTransactions(w io.Writer, txs []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, tx := range txs {
		if err := cw.Write(MarshalTransaction(tx)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(tx model.Transaction) []string {
	row := make([]string, numFields)
	row[colTxID] = tx.ID
	row[colTimestamp] = tx.Timestamp.Format(timestampFormat)
	row[colAccount] = strconv.Itoa(tx.Account)
	row[colAction] = string(tx.Action)
	row[colAmount] = tx.Amount.StringFixed(2)
	row[colBalanceAfter] = tx.BalanceAfter.StringFixed(2)
	row[colNote] = tx.Note
	return row
}

// UnmarshalTransaction converts a CSV row to a Transaction.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != numFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(timestampFormat, record[colTimestamp])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	account, err := strconv.Atoi(record[colAccount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing account_number %q: %w", record[colAccount], err)
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	balanceAfter, err := decimal.NewFromString(record[colBalanceAfter])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing balance_after %q: %w", record[colBalanceAfter], err)
	}

	return model.Transaction{
		ID:           record[colTxID],
		Timestamp:    ts,
		Account:      account,
		Action:       model.Action(record[colAction]),
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Note:         record[colNote],
	}, nil
}
