package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gdbank-dev/gdbank/internal/txlog"
)

// TagsFileName is the transaction tag table file under the data directory.
const TagsFileName = "tags.csv"

var tagsHeader = []string{"account_number", "tx_id", "tag", "note"}

func (s *Store) tagsPath() string {
	return filepath.Join(s.dir, TagsFileName)
}

// SaveTags rewrites tags.csv in full from the given entries.
func (s *Store) SaveTags(entries []txlog.TagEntry) error {
	f, err := os.Create(s.tagsPath())
	if err != nil {
		return fmt.Errorf("creating tags file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if err := cw.Write(tagsHeader); err != nil {
		return fmt.Errorf("writing tags header: %w", err)
	}
	for _, e := range entries {
		row := []string{strconv.Itoa(e.Account), e.TxID, e.Tag, e.Note}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing tag row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// LoadTags reads tags.csv. A missing file yields no entries; malformed rows
// are skipped with a warning.
func (s *Store) LoadTags() ([]txlog.TagEntry, error) {
	f, err := os.Open(s.tagsPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening tags file: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = len(tagsHeader)

	var entries []txlog.TagEntry
	row := 0
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			row++
			s.logger.Warn("skipping malformed tag row", "file", s.tagsPath(), "row", row)
			continue
		}
		row++
		if row == 1 && rec[0] == tagsHeader[0] {
			continue
		}
		account, err := strconv.Atoi(rec[0])
		if err != nil {
			s.logger.Warn("skipping malformed tag row", "file", s.tagsPath(), "row", row)
			continue
		}
		entries = append(entries, txlog.TagEntry{Account: account, TxID: rec[1], Tag: rec[2], Note: rec[3]})
	}
	return entries, nil
}
