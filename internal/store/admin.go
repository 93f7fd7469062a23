package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gdbank-dev/gdbank/internal/pin"
)

// AdminFileName is the admin credential file under the data directory.
const AdminFileName = "admin.json"

var (
	// ErrAdminNotConfigured is returned by admin-gated checks before a
	// password has ever been set.
	ErrAdminNotConfigured = errors.New("admin password not configured")
	// ErrPasswordTooShort is returned when a new admin password is below
	// the minimum length.
	ErrPasswordTooShort = fmt.Errorf("admin password must be at least %d characters", pin.MinAdminPasswordLength)
)

type adminFile struct {
	AdminPasswordHash string `json:"admin_password_hash"`
}

func (s *Store) adminPath() string {
	return filepath.Join(s.dir, AdminFileName)
}

func (s *Store) readAdminFile() (adminFile, error) {
	var af adminFile
	data, err := os.ReadFile(s.adminPath())
	if err != nil {
		if os.IsNotExist(err) {
			return af, nil
		}
		return af, fmt.Errorf("reading admin file: %w", err)
	}
	if err := json.Unmarshal(data, &af); err != nil {
		return adminFile{}, fmt.Errorf("parsing admin file: %w", err)
	}
	return af, nil
}

// SetAdminPassword hashes and stores the admin password.
func (s *Store) SetAdminPassword(hasher *pin.Hasher, password string) error {
	if len(password) < pin.MinAdminPasswordLength {
		return ErrPasswordTooShort
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}

	data, err := json.Marshal(adminFile{AdminPasswordHash: hash})
	if err != nil {
		return fmt.Errorf("encoding admin file: %w", err)
	}
	if err := os.WriteFile(s.adminPath(), data, 0o600); err != nil {
		return fmt.Errorf("writing admin file: %w", err)
	}
	return nil
}

// AdminConfigured reports whether an admin password has been set.
func (s *Store) AdminConfigured() (bool, error) {
	af, err := s.readAdminFile()
	if err != nil {
		return false, err
	}
	return af.AdminPasswordHash != "", nil
}

// VerifyAdminPassword checks a password against the stored hash. It returns
// ErrAdminNotConfigured when no password has been set, so admin-gated
// operations refuse rather than run open.
func (s *Store) VerifyAdminPassword(hasher *pin.Hasher, password string) (bool, error) {
	af, err := s.readAdminFile()
	if err != nil {
		return false, err
	}
	if af.AdminPasswordHash == "" {
		return false, ErrAdminNotConfigured
	}
	return hasher.Verify(password, af.AdminPasswordHash), nil
}
