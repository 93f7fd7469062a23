package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// SequenceFileName stores the account number allocator's high-water mark.
// Without it, delete-all followed by a restart would hand out previously
// used numbers again.
const SequenceFileName = "sequence"

func (s *Store) sequencePath() string {
	return filepath.Join(s.dir, SequenceFileName)
}

// LoadNextNumber reads the persisted allocator position. Zero when the
// file is absent; unreadable contents are treated as absent with a warning
// rather than blocking startup.
func (s *Store) LoadNextNumber() int {
	data, err := os.ReadFile(s.sequencePath())
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("reading sequence file", "error", err)
		}
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		s.logger.Warn("ignoring malformed sequence file", "contents", string(data))
		return 0
	}
	return n
}

// SaveNextNumber persists the allocator position.
func (s *Store) SaveNextNumber(n int) error {
	if err := os.WriteFile(s.sequencePath(), []byte(strconv.Itoa(n)+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing sequence file: %w", err)
	}
	return nil
}
