package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// Extensions probed when the expected post-processed artifact is missing.
// The backend sometimes leaves the merged file under a different container.
var probeExtensions = []string{".mp4", ".mkv", ".webm", ".m4a"}

const maxTitleRunes = 50

// ArtifactStore manages the working directory shared by all concurrent
// downloads. Attempt names are collision-resistant (timestamp prefix plus
// sanitized title) so concurrent attempts never clobber each other.
type ArtifactStore struct {
	dir string
}

// NewArtifactStore creates a store rooted at dir, creating it if needed.
func NewArtifactStore(dir string) (*ArtifactStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &ArtifactStore{dir: dir}, nil
}

// Dir returns the working directory path.
func (s *ArtifactStore) Dir() string {
	return s.dir
}

// AttemptBase builds a collision-resistant base name (no extension) for one
// download attempt from the video title.
func (s *ArtifactStore) AttemptBase(title string) string {
	return fmt.Sprintf("%d_%s", time.Now().Unix(), SanitizeTitle(title))
}

// Path joins a file name onto the working directory.
func (s *ArtifactStore) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Locate finds the artifact produced by an attempt. It checks the expected
// path first, then the same base under alternate extensions, then falls
// back to the newest non-empty file carrying the attempt's timestamp
// prefix. Returns the path and size, or an error if nothing was produced.
func (s *ArtifactStore) Locate(base, expectedExt string) (string, int64, error) {
	expected := s.Path(base + expectedExt)
	if size, ok := nonEmptyFileSize(expected); ok {
		return expected, size, nil
	}

	for _, ext := range probeExtensions {
		if ext == expectedExt {
			continue
		}
		candidate := s.Path(base + ext)
		if size, ok := nonEmptyFileSize(candidate); ok {
			return candidate, size, nil
		}
	}

	prefix := base
	if idx := strings.Index(base, "_"); idx > 0 {
		prefix = base[:idx+1]
	}
	return s.newestWithPrefix(prefix)
}

func (s *ArtifactStore) newestWithPrefix(prefix string) (string, int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", 0, fmt.Errorf("scan artifact dir: %w", err)
	}

	var newestPath string
	var newestSize int64
	var newestTime time.Time

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.Size() == 0 {
			continue
		}
		if info.ModTime().After(newestTime) {
			newestTime = info.ModTime()
			newestPath = s.Path(entry.Name())
			newestSize = info.Size()
		}
	}

	if newestPath == "" {
		return "", 0, fmt.Errorf("no artifact found for prefix %q", prefix)
	}
	return newestPath, newestSize, nil
}

// Remove deletes a consumed artifact. Missing files are not an error.
func (s *ArtifactStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove artifact: %w", err)
	}
	return nil
}

// Sweep deletes files older than maxAge and returns how many were removed.
// It is the safety net for artifacts orphaned by crashed attempts.
func (s *ArtifactStore) Sweep(maxAge time.Duration) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		slog.Error("artifact sweep failed", "dir", s.dir, "error", err)
		return 0
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(s.Path(entry.Name())); err == nil {
			removed++
		}
	}

	if removed > 0 {
		slog.Info("swept orphaned artifacts", "removed", removed, "max_age", maxAge)
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is canceled.
func (s *ArtifactStore) StartSweeper(ctx context.Context, interval, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep(maxAge)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// SanitizeTitle strips characters invalid in file names and caps the result
// length so output templates stay within path limits. Percent signs are
// replaced too: the result is embedded in the backend's -o template, where
// a bare % starts a conversion.
func SanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case strings.ContainsRune(`/\:*?"<>|%`, r):
			b.WriteRune('_')
		case unicode.IsControl(r):
			// drop
		default:
			b.WriteRune(r)
		}
	}

	cleaned := strings.TrimSpace(b.String())
	if cleaned == "" {
		cleaned = "video"
	}

	runes := []rune(cleaned)
	if len(runes) > maxTitleRunes {
		runes = runes[:maxTitleRunes]
	}
	return strings.TrimSpace(string(runes))
}

func nonEmptyFileSize(path string) (int64, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return 0, false
	}
	return info.Size(), true
}
