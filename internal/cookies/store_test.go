package cookies

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validCookieData = `# Netscape HTTP Cookie File
.youtube.com	TRUE	/	TRUE	1999999999	SID	abcdef123456
.youtube.com	TRUE	/	TRUE	1999999999	HSID	xyz789
`

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestSaveAndLookupRoundTrip(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(42, []byte(validCookieData)))

	path, ok := store.Lookup(42)
	require.True(t, ok)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, validCookieData, string(contents))
}

func TestSaveWritesBackupCopy(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(42, []byte(validCookieData)))

	backup := filepath.Join(store.dir, "cookies_42.backup.txt")
	contents, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, validCookieData, string(contents))
}

func TestSaveRejectsMalformedUpload(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"single line", "just one line"},
		{"no markers", "random text\nmore random text\neven more"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)

			err := store.Save(7, []byte(tt.data))
			assert.Error(t, err)

			_, ok := store.Lookup(7)
			assert.False(t, ok, "rejected upload must not create a credential")
		})
	}
}

func TestSaveRejectionLeavesExistingFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(7, []byte(validCookieData)))

	assert.Error(t, store.Save(7, []byte("garbage")))

	path, ok := store.Lookup(7)
	require.True(t, ok)
	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, validCookieData, string(contents))
}

func TestLookupFallsBackToGlobalFile(t *testing.T) {
	store := newTestStore(t)

	_, ok := store.Lookup(99)
	assert.False(t, ok)

	globalPath := filepath.Join(store.dir, "cookies.txt")
	require.NoError(t, os.WriteFile(globalPath, []byte(validCookieData), 0o600))

	path, ok := store.Lookup(99)
	require.True(t, ok)
	assert.Equal(t, globalPath, path)

	// A user-specific file takes precedence over the global one.
	require.NoError(t, store.Save(99, []byte(validCookieData)))
	path, ok = store.Lookup(99)
	require.True(t, ok)
	assert.NotEqual(t, globalPath, path)
}

func TestStatus(t *testing.T) {
	store := newTestStore(t)

	present, _ := store.Status(1)
	assert.False(t, present)

	require.NoError(t, store.Save(1, []byte(validCookieData)))
	present, desc := store.Status(1)
	assert.True(t, present)
	assert.NotEmpty(t, desc)
}

func TestHasAny(t *testing.T) {
	store := newTestStore(t)
	assert.False(t, store.HasAny())

	require.NoError(t, store.Save(5, []byte(validCookieData)))
	assert.True(t, store.HasAny())
}

func TestHasAnyIgnoresLingeringBackups(t *testing.T) {
	store := newTestStore(t)

	backup := filepath.Join(store.dir, "cookies_5.backup.txt")
	require.NoError(t, os.WriteFile(backup, []byte(validCookieData), 0o600))

	assert.False(t, store.HasAny(), "a backup alone is not a usable credential")
}
