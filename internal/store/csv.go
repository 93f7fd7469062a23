package store

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

// Header is the CSV header for accounts.csv.
const Header = "account_number,name,age,account_type,balance,status,pin,created_at"

const (
	numFields       = 8
	createdAtFormat = "2006-01-02 15:04:05"
	colNumber       = 0
	colName         = 1
	colAge          = 2
	colType         = 3
	colBalance      = 4
	colStatus       = 5
	colPIN          = 6
	colCreatedAt    = 7
)

// ReadAccounts reads all rows from an accounts.csv reader. Rows that fail
// to parse are returned separately as row numbers so the caller can surface
// them without aborting the load.
func ReadAccounts(r io.Reader) ([]model.Account, []int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	var (
		accounts []model.Account
		bad      []int
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
		if row == 1 && rec[colNumber] == "account_number" {
			continue // header
		}
		acc, err := UnmarshalAccount(rec)
		if err != nil {
			bad = append(bad, row)
			continue
		}
		accounts = append(accounts, acc)
	}
	return accounts, bad, nil
}

// WriteAccounts writes a full accounts.csv including the header. Rows are
// written in the order given; callers sort by account number first.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, acc := range accounts {
		if err := cw.Write(MarshalAccount(acc)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acc model.Account) []string {
	row := make([]string, numFields)
	row[colNumber] = strconv.Itoa(acc.Number)
	row[colName] = acc.Name
	row[colAge] = strconv.Itoa(acc.Age)
	row[colType] = string(acc.Type)
	row[colBalance] = acc.Balance.StringFixed(2)
	row[colStatus] = string(acc.Status)
	row[colPIN] = acc.PINHash
	if !acc.CreatedAt.IsZero() {
		row[colCreatedAt] = acc.CreatedAt.Format(createdAtFormat)
	}
	return row
}

// UnmarshalAccount converts a CSV row to an Account. An empty created_at
// is tolerated and left as the zero time.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	number, err := strconv.Atoi(record[colNumber])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing account_number %q: %w", record[colNumber], err)
	}

	age, err := strconv.Atoi(record[colAge])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing age %q: %w", record[colAge], err)
	}

	balance, err := decimal.NewFromString(record[colBalance])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing balance %q: %w", record[colBalance], err)
	}

	var createdAt time.Time
	if record[colCreatedAt] != "" {
		createdAt, err = time.Parse(createdAtFormat, record[colCreatedAt])
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing created_at %q: %w", record[colCreatedAt], err)
		}
	}

	return model.Account{
		Number:    number,
		Name:      record[colName],
		Age:       age,
		Type:      model.AccountType(record[colType]),
		Balance:   balance,
		Status:    model.AccountStatus(record[colStatus]),
		PINHash:   record[colPIN],
		CreatedAt: createdAt,
	}, nil
}
