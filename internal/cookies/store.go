// Package cookies persists per-user browser-exported cookie files used to
// authorize restricted-content requests against the extraction backend.
package cookies

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const globalCookieFile = "cookies.txt"

// Netscape cookie exports carry at least one of these markers. An upload
// without any of them is rejected.
var cookieMarkers = []string{
	"# http",
	"# netscape",
	"domain",
	"path",
	"secure",
	"expiration",
	".youtube.com",
}

// Store maps user ids to cookie files under a single directory. Writes for
// distinct users never conflict; same-user concurrent writes are
// last-write-wins.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cookies dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Lookup returns the cookie file path for userID: the user-specific file if
// present, else the global fallback, else ok=false. No side effects.
func (s *Store) Lookup(userID int64) (string, bool) {
	userPath := s.userPath(userID)
	if fileExists(userPath) {
		return userPath, true
	}

	globalPath := filepath.Join(s.dir, globalCookieFile)
	if fileExists(globalPath) {
		return globalPath, true
	}

	return "", false
}

// Save validates and persists an uploaded cookie file for userID, and writes
// a backup copy alongside it. A failed validation leaves any existing file
// untouched.
func (s *Store) Save(userID int64, contents []byte) error {
	if err := validateCookieData(contents); err != nil {
		return err
	}

	userPath := s.userPath(userID)
	if err := writeAtomic(userPath, contents); err != nil {
		return fmt.Errorf("write cookie file: %w", err)
	}

	backupPath := filepath.Join(s.dir, fmt.Sprintf("cookies_%d.backup.txt", userID))
	if err := os.WriteFile(backupPath, contents, 0o600); err != nil {
		// The primary copy landed; a failed backup is not worth failing
		// the upload over.
		slog.Warn("failed to write cookie backup", "user_id", userID, "error", err)
	}

	slog.Info("cookies updated", "user_id", userID, "bytes", len(contents))
	return nil
}

// Status reports whether credentials exist for userID, for display only.
func (s *Store) Status(userID int64) (bool, string) {
	if fileExists(s.userPath(userID)) {
		return true, "personal cookies on file"
	}
	if fileExists(filepath.Join(s.dir, globalCookieFile)) {
		return true, "using shared cookies"
	}
	return false, "no cookies uploaded"
}

// HasAny reports whether any usable cookie file exists in the store.
// Backup copies do not count; they are never handed to the backend.
func (s *Store) HasAny() bool {
	matches, err := filepath.Glob(filepath.Join(s.dir, "cookies*.txt"))
	if err != nil {
		return false
	}
	for _, match := range matches {
		if !strings.Contains(filepath.Base(match), ".backup.") {
			return true
		}
	}
	return false
}

func (s *Store) userPath(userID int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("cookies_%d.txt", userID))
}

func validateCookieData(contents []byte) error {
	lines := strings.Split(strings.TrimSpace(string(contents)), "\n")
	if len(lines) < 2 {
		return fmt.Errorf("cookie file too short: expected at least 2 lines, got %d", len(lines))
	}

	for _, line := range lines {
		lower := strings.ToLower(line)
		for _, marker := range cookieMarkers {
			if strings.Contains(lower, marker) {
				return nil
			}
		}
	}

	return fmt.Errorf("cookie file has no recognizable Netscape-format markers")
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
