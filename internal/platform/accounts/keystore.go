package accounts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	sshDirName         = ".ssh"
	authorizedKeysName = "authorized_keys"

	sshDirMode  = 0o700
	keyFileMode = 0o600
)

// KeyStore is the authorized-key capability used by the pipeline.
type KeyStore interface {
	// EnsureKey ensures the exact key line is present exactly once in the
	// account's authorized_keys file. The store is additive-only: keys are
	// never replaced or removed, so a superseded key must be pruned by the
	// operator. Returns whether the key was newly appended.
	EnsureKey(ctx context.Context, account Account, key string) (added bool, err error)
}

// FileKeyStore implements KeyStore against the filesystem, delegating
// ownership changes to an account Manager.
type FileKeyStore struct {
	manager Manager
}

// NewFileKeyStore creates a KeyStore writing under each account's home.
func NewFileKeyStore(manager Manager) *FileKeyStore {
	return &FileKeyStore{manager: manager}
}

// EnsureKey implements KeyStore.
//
// Duplicate detection is exact whole-line equality. Substring matching would
// tolerate cosmetic comment edits but can both under- and over-match when one
// key's text appears inside another entry, so the stricter rule is used.
func (s *FileKeyStore) EnsureKey(ctx context.Context, account Account, key string) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return false, fmt.Errorf("refusing to install an empty key")
	}
	if account.Home == "" {
		return false, fmt.Errorf("account %s has no home directory", account.Name)
	}

	sshDir := filepath.Join(account.Home, sshDirName)
	if err := os.MkdirAll(sshDir, sshDirMode); err != nil {
		return false, fmt.Errorf("failed to create %s: %w", sshDir, err)
	}
	// MkdirAll leaves existing directories alone; tighten them regardless.
	if err := os.Chmod(sshDir, sshDirMode); err != nil {
		return false, fmt.Errorf("failed to set mode on %s: %w", sshDir, err)
	}

	keyFile := filepath.Join(sshDir, authorizedKeysName)
	existing, err := os.ReadFile(keyFile) // #nosec G304
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to read %s: %w", keyFile, err)
	}

	added := false
	if !containsLine(string(existing), key) {
		content := string(existing)
		if content != "" && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		content += key + "\n"
		if err := os.WriteFile(keyFile, []byte(content), keyFileMode); err != nil {
			return false, fmt.Errorf("failed to write %s: %w", keyFile, err)
		}
		added = true
	}

	if err := os.Chmod(keyFile, keyFileMode); err != nil {
		return false, fmt.Errorf("failed to set mode on %s: %w", keyFile, err)
	}
	if err := s.manager.ChownRecursive(ctx, sshDir, account.Name); err != nil {
		return false, err
	}
	return added, nil
}

// containsLine reports whether content has a line exactly equal to key.
func containsLine(content, key string) bool {
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == key {
			return true
		}
	}
	return false
}

var _ KeyStore = (*FileKeyStore)(nil)
