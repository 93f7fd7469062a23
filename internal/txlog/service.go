// Package txlog is the append-only transaction log. Records are assigned a
// uuid and timestamp on append and are never mutated or deleted; reversals
// are recorded by the ledger as new compensating rows.
package txlog

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gdbank-dev/gdbank/internal/model"
)

// FileName is the transactions table file name inside the data dir.
const FileName = "transactions.csv"

// Tag is a post-hoc annotation attached to a logged transaction.
type Tag struct {
	Tag  string
	Note string
}

type tagKey struct {
	account int
	txID    string
}

// Service owns transactions.csv. The in-memory copy is authoritative for
// queries; the file append is best-effort and a failed write never undoes
// an already-committed record.
type Service struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	records []model.Transaction
	tags    map[tagKey]Tag

	now   func() time.Time
	newID func() string
}

// Open loads the transaction log from dir/transactions.csv. A missing file
// starts an empty log; malformed rows are skipped and reported through the
// logger.
func Open(dir string, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		path:   filepath.Join(dir, FileName),
		logger: logger,
		tags:   make(map[tagKey]Tag),
		now:    time.Now,
		newID:  uuid.NewString,
	}

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening transaction log: %w", err)
	}
	defer f.Close()

	records, bad, err := ReadTransactions(f)
	if err != nil {
		return nil, fmt.Errorf("reading transaction log: %w", err)
	}
	for _, row := range bad {
		logger.Warn("skipping malformed transaction row", "file", s.path, "row", row)
	}
	s.records = records
	return s, nil
}

// Append assigns an id and timestamp to the record, commits it in memory
// and appends it to the file. The returned error covers the file write
// only; the record is retained regardless, so callers treat the error as
// an operator warning, never as a rollback signal.
func (s *Service) Append(account int, action model.Action, amount, balanceAfter decimal.Decimal, note string) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := model.Transaction{
		ID:           s.newID(),
		Timestamp:    s.now(),
		Account:      account,
		Action:       action,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Note:         note,
	}
	s.records = append(s.records, tx)

	if err := s.appendToFile(tx); err != nil {
		return tx, fmt.Errorf("appending to transaction log: %w", err)
	}
	return tx, nil
}

func (s *Service) appendToFile(tx model.Transaction) error {
	needsHeader := false
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if needsHeader {
		if _, err := fmt.Fprintln(f, Header); err != nil {
			return err
		}
	}
	return AppendTransactions(f, []model.Transaction{tx})
}

// ByAccount returns up to limit records for an account, most recent first.
// limit <= 0 returns everything.
func (s *Service) ByAccount(account, limit int) []model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Transaction
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].Account != account {
			continue
		}
		out = append(out, s.records[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Last returns the most recent record for an account.
func (s *Service) Last(account int) (model.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].Account == account {
			return s.records[i], true
		}
	}
	return model.Transaction{}, false
}

// Range returns an account's records in chronological order, bounded
// inclusively by start and end. A nil bound is unbounded on that side.
func (s *Service) Range(account int, start, end *time.Time) []model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Transaction
	for _, tx := range s.records {
		if tx.Account != account {
			continue
		}
		if start != nil && tx.Timestamp.Before(*start) {
			continue
		}
		if end != nil && tx.Timestamp.After(*end) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// Len returns the total number of records.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// SetTag attaches a tag and note to a transaction, keyed by account and
// tx id. The underlying record is left untouched.
func (s *Service) SetTag(account int, txID, tag, note string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags[tagKey{account, txID}] = Tag{Tag: tag, Note: note}
}

// GetTag returns the tag attached to a transaction, if any.
func (s *Service) GetTag(account int, txID string) (Tag, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tags[tagKey{account, txID}]
	return t, ok
}

// TagEntry is a tag map entry in exportable form.
type TagEntry struct {
	Account int
	TxID    string
	Tag     string
	Note    string
}

// Tags returns all tag entries sorted by account then tx id.
func (s *Service) Tags() []TagEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TagEntry, 0, len(s.tags))
	for k, t := range s.tags {
		out = append(out, TagEntry{Account: k.account, TxID: k.txID, Tag: t.Tag, Note: t.Note})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Account != out[j].Account {
			return out[i].Account < out[j].Account
		}
		return out[i].TxID < out[j].TxID
	})
	return out
}

// RestoreTags replaces the tag map with the given entries.
func (s *Service) RestoreTags(entries []TagEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tags = make(map[tagKey]Tag, len(entries))
	for _, e := range entries {
		s.tags[tagKey{e.Account, e.TxID}] = Tag{Tag: e.Tag, Note: e.Note}
	}
}
