package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, maxBytes int64) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(filepath.Join(t.TempDir(), "uploads"), maxBytes, nil)
	require.NoError(t, err)
	return s
}

func TestLocalStore_PutOpenDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 0)

	locator, size, err := s.Put(ctx, strings.NewReader("hello attachment"), "txt")
	require.NoError(t, err)
	assert.Equal(t, int64(len("hello attachment")), size)
	assert.True(t, strings.HasSuffix(locator, ".txt"))

	rc, err := s.Open(ctx, locator)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "hello attachment", string(body))

	require.NoError(t, s.Delete(ctx, locator))
	_, err = s.Open(ctx, locator)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Delete(ctx, locator), "deleting twice is not an error")
}

func TestLocalStore_PutExtension(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{ext: "", want: ".dat"},
		{ext: ".PDF", want: ".pdf"},
		{ext: "../../etc", want: ".etc"},
		{ext: "...", want: ".dat"},
		{ext: "averyveryverylongextension", want: ".dat"},
	}
	for _, tc := range tests {
		t.Run(tc.ext, func(t *testing.T) {
			s := newTestStore(t, 0)
			locator, _, err := s.Put(context.Background(), strings.NewReader("x"), tc.ext)
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(locator, tc.want), locator)

			_, err = os.Stat(filepath.Join(s.Root(), locator))
			assert.NoError(t, err)
		})
	}
}

func TestLocalStore_PutTooLarge(t *testing.T) {
	s := newTestStore(t, 4)

	_, _, err := s.Put(context.Background(), strings.NewReader("12345"), "txt")
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	assert.Empty(t, entries, "partial blob must be removed")

	_, size, err := s.Put(context.Background(), strings.NewReader("1234"), "txt")
	require.NoError(t, err)
	assert.Equal(t, int64(4), size)
}

func TestLocalStore_RejectsEscapingLocators(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	for _, locator := range []string{"", ".", "..", "../secret.dat", "nested/file.dat"} {
		_, err := s.Open(ctx, locator)
		assert.ErrorIs(t, err, ErrInvalidLocator, locator)
		assert.ErrorIs(t, s.Delete(ctx, locator), ErrInvalidLocator, locator)
	}
}

func TestNewLocalStore_RequiresRoot(t *testing.T) {
	_, err := NewLocalStore("  ", 0, nil)
	assert.Error(t, err)
}

func TestExtFromFilename(t *testing.T) {
	assert.Equal(t, "png", ExtFromFilename("screenshot.png"))
	assert.Equal(t, "gz", ExtFromFilename("backup.tar.gz"))
	assert.Equal(t, "", ExtFromFilename("README"))
}
