package testutils

import (
	"embed"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"
)

// The all: prefix is required to embed the underscore prefixed _posts and _drafts directories.
//
//go:embed all:testdata
var testdata embed.FS

// NewTestContentFS returns a small blog with two posts, a draft, a page and two asset files.
func NewTestContentFS(t *testing.T) fs.FS {
	contentFS, err := fs.Sub(testdata, "testdata/content")
	require.NoError(t, err)

	return contentFS
}
