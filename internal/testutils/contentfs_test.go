package testutils

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTestContentFS(t *testing.T) {
	contentFS := NewTestContentFS(t)
	require.NotNil(t, contentFS)

	expected := []string{
		"about.md",
		"_posts/2021-06-02-example.md",
		"_posts/2021-05-01-first-post.md",
		"_drafts/work-in-progress.md",
		"assets/site.scss",
		"files/random.txt",
	}

	var actual []string
	err := fs.WalkDir(contentFS, ".", func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err)

		if d.Type().IsRegular() {
			actual = append(actual, path)
		}

		return nil
	})
	require.NoError(t, err)

	require.ElementsMatch(t, expected, actual)
}
