// Package store persists ledger state under a data directory: accounts.csv
// rewritten in full on every save, the admin.json credential file, the
// jobs.yaml scheduling state, the tags.csv tag map and the number allocator
// sequence file. The transaction log has its own append-only service and is
// not managed here.
package store

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/gdbank-dev/gdbank/internal/model"
)

// AccountsFileName is the accounts table file under the data directory.
const AccountsFileName = "accounts.csv"

// Store reads and writes persisted account state in a data directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) accountsPath() string {
	return filepath.Join(s.dir, AccountsFileName)
}

// LoadAccounts reads accounts.csv. A missing file yields an empty slice;
// malformed rows are skipped with a warning.
func (s *Store) LoadAccounts() ([]model.Account, error) {
	f, err := os.Open(s.accountsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening accounts file: %w", err)
	}
	defer f.Close()

	accounts, bad, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading accounts file: %w", err)
	}
	for _, row := range bad {
		s.logger.Warn("skipping malformed account row", "file", s.accountsPath(), "row", row)
	}
	return accounts, nil
}

// SaveAccounts rewrites accounts.csv in full, sorted by account number.
func (s *Store) SaveAccounts(accounts []model.Account) error {
	sorted := make([]model.Account, len(accounts))
	copy(sorted, accounts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	f, err := os.Create(s.accountsPath())
	if err != nil {
		return fmt.Errorf("creating accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, sorted); err != nil {
		return fmt.Errorf("writing accounts file: %w", err)
	}
	return nil
}

// ImportAccounts reads account rows from r, skipping rows that fail to
// parse, and returns the accounts that did parse along with the number of
// rows skipped.
func (s *Store) ImportAccounts(r io.Reader) ([]model.Account, int, error) {
	accounts, bad, err := ReadAccounts(r)
	if err != nil {
		return nil, 0, fmt.Errorf("importing accounts: %w", err)
	}
	for _, row := range bad {
		s.logger.Warn("skipping malformed import row", "row", row)
	}
	return accounts, len(bad), nil
}

// ExportAccounts writes the given accounts to w in the accounts.csv layout,
// sorted by account number, and returns the number of rows written.
func (s *Store) ExportAccounts(w io.Writer, accounts []model.Account) (int, error) {
	sorted := make([]model.Account, len(accounts))
	copy(sorted, accounts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	if err := WriteAccounts(w, sorted); err != nil {
		return 0, fmt.Errorf("exporting accounts: %w", err)
	}
	return len(sorted), nil
}
