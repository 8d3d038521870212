package generator

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStorage(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStorage(dir)

	tCases := []struct {
		name         string
		expectedName string
		content      string
		err          error
	}{
		{"a/b/c", "/a/b/c", "content", nil},
		{"../../etc/passwd", "/etc/passwd", "something", nil},
		{"index.html", "/index.html", "<p>overwritten</p>", nil},
		{"", "", "", ErrEmptyName},
		{"  ", "", "", ErrEmptyName},
	}
	err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("old content that is longer"), 0644)
	require.NoError(t, err)

	for _, tCase := range tCases {
		t.Run(tCase.name, func(t *testing.T) {
			err := s.Store(context.Background(), tCase.name, bytes.NewBufferString(tCase.content))
			if tCase.err != nil {
				require.ErrorIs(t, err, tCase.err)
				return
			}
			require.NoError(t, err)
			content, err := os.ReadFile(filepath.Join(dir, tCase.expectedName))
			require.NoError(t, err, "could not read destination file")
			require.Equal(t, tCase.content, string(content))
		})
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		require.NotRegexp(t, `^\.`, entry.Name(), "temporary file left behind")
	}
}

func TestStorageCanceled(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewFileStorage(dir).Store(ctx, "index.html", bytes.NewBufferString("content"))
	require.ErrorIs(t, err, context.Canceled)
	require.NoFileExists(t, filepath.Join(dir, "index.html"))
}
