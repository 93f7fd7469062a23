// Package statement derives account statements from the transaction log:
// date-filtered views with attached tags, and CSV export in the same
// column layout as the persisted transactions table.
package statement

import (
	"fmt"
	"io"
	"time"

	"github.com/gdbank-dev/gdbank/internal/model"
	"github.com/gdbank-dev/gdbank/internal/txlog"
)

// Service builds statements over a transaction log. It reads only; all
// mutation stays with the ledger.
type Service struct {
	log *txlog.Service
}

// NewService creates a statement Service.
func NewService(log *txlog.Service) *Service {
	return &Service{log: log}
}

// Line is one statement row: the logged transaction plus any post-hoc tag.
type Line struct {
	model.Transaction
	Tag     string
	TagNote string
}

// Statement returns an account's transactions in chronological order,
// bounded inclusively by start and end (nil = unbounded).
func (s *Service) Statement(account int, start, end *time.Time) []Line {
	txs := s.log.Range(account, start, end)
	lines := make([]Line, 0, len(txs))
	for _, tx := range txs {
		line := Line{Transaction: tx}
		if tag, ok := s.log.GetTag(account, tx.ID); ok {
			line.Tag = tag.Tag
			line.TagNote = tag.Note
		}
		lines = append(lines, line)
	}
	return lines
}

// ExportCSV writes the filtered statement to w using the transactions
// table layout and returns the number of rows written.
func (s *Service) ExportCSV(w io.Writer, account int, start, end *time.Time) (int, error) {
	txs := s.log.Range(account, start, end)
	if err := txlog.WriteTransactions(w, txs); err != nil {
		return 0, fmt.Errorf("exporting statement: %w", err)
	}
	return len(txs), nil
}
