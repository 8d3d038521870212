package renderer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"testing/fstest"

	"github.com/klingtnet/quire/generator/model"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark/parser"
	goldmarkRenderer "github.com/yuin/goldmark/renderer"
)

// Nopdown writes markdown sources unchanged.
type Nopdown struct{}

func (*Nopdown) Convert(source []byte, writer io.Writer, opts ...parser.ParseOption) error {
	_, err := writer.Write(source)
	return err
}

func (*Nopdown) Parser() parser.Parser {
	return nil
}

func (*Nopdown) SetParser(parser.Parser) {

}

func (*Nopdown) Renderer() goldmarkRenderer.Renderer {
	return nil
}

func (*Nopdown) SetRenderer(goldmarkRenderer.Renderer) {

}

func testLayouts(t *testing.T) *Layouts {
	t.Helper()

	layoutFS := fstest.MapFS{
		"base.gohtml":    {Data: []byte(`{{ .Title }}|{{ template "content" . }}`)},
		"default.gohtml": {Data: []byte(`{{ define "content" }}{{ .Content }}{{ end }}`)},
		"post.gohtml": {Data: []byte(`{{ define "content" }}{{ date "2006-01-02" .Page.Date }}|{{ .Content }}` +
			`{{ with .Previous }}|older:{{ .Title }}{{ end }}{{ with .Next }}|newer:{{ .Title }}{{ end }}{{ end }}`)},
		"list.gohtml": {Data: []byte(`{{ define "content" }}{{ range .Listing.Entries }}[{{ .Post.Title }}:{{ .Excerpt }}]{{ end }}` +
			`{{ with .Listing.Pagination }}{{ .Page }}/{{ .TotalPages }}{{ end }}{{ end }}`)},
	}
	layouts, err := ParseLayouts(layoutFS, testFuncs())
	require.NoError(t, err)

	return layouts
}

func testIndex(t *testing.T, files map[string]string) *model.SiteIndex {
	t.Helper()

	contentFS := fstest.MapFS{}
	for name, content := range files {
		contentFS[name] = &fstest.MapFile{Data: []byte(content)}
	}
	idx, err := model.BuildIndex(context.Background(), contentFS, model.IndexOptions{})
	require.NoError(t, err)

	return idx
}

func TestMarkdownPage(t *testing.T) {
	idx := testIndex(t, map[string]string{
		"about.md":                     "---\ntitle: Test Page\n---\nSome content.",
		"_posts/2021-06-01-older.md":   "Older post.",
		"_posts/2021-06-02-example.md": "---\nlayout: post\ntitle: Example\n---\nMiddle post.",
		"_posts/2021-06-03-newer.md":   "Newer post.",
	})
	site := &Site{Title: "Site", Neighbors: idx.Neighbors}
	r := NewMarkdown(&Nopdown{}, testLayouts(t), Options{})

	tCases := []struct {
		name     string
		doc      *model.Document
		expected string
	}{
		{"page", idx.Pages[0], "Test Page|Some content."},
		{"post", idx.Posts[1], "Example|2021-06-02|Middle post.|older:Older|newer:Newer"},
	}

	for _, tCase := range tCases {
		t.Run(tCase.name, func(t *testing.T) {
			buf := bytes.NewBuffer(nil)
			err := r.Page(context.Background(), buf, tCase.doc, site)
			require.NoError(t, err)
			require.Equal(t, tCase.expected, buf.String())
		})
	}
}

func TestMarkdownPageGoldmark(t *testing.T) {
	idx := testIndex(t, map[string]string{
		"_posts/2021-06-02-example.md": "---\nlayout: post\n---\n# Hi\n",
	})
	r := NewMarkdown(NewGoldmark(MarkdownOptions{}), testLayouts(t), Options{})

	buf := bytes.NewBuffer(nil)
	err := r.Page(context.Background(), buf, idx.Posts[0], &Site{})
	require.NoError(t, err)
	require.Equal(t, "Example|2021-06-02|<h1 id=\"hi\">Hi</h1>\n", buf.String())
}

func TestMarkdownLayoutResolution(t *testing.T) {
	idx := testIndex(t, map[string]string{
		"missing.md": "---\nlayout: nonexistent\n---\nBody",
		"plain.md":   "No layout given.",
	})
	layouts := testLayouts(t)

	r := NewMarkdown(&Nopdown{}, layouts, Options{})
	layout, err := r.Layout(idx.Pages[1])
	require.NoError(t, err)
	require.Equal(t, "default", layout.Name())

	_, err = r.Layout(idx.Pages[0])
	require.ErrorIs(t, err, ErrUnknownLayout)
	var layoutErr *UnknownLayoutError
	require.True(t, errors.As(err, &layoutErr))
	require.Equal(t, "missing.md", layoutErr.Path)
	require.Equal(t, "nonexistent", layoutErr.Layout)
	require.Equal(t, []string{"default", "list", "post"}, layoutErr.Known)
	require.Contains(t, err.Error(), "known layouts: default, list, post")

	err = r.Page(context.Background(), io.Discard, idx.Pages[0], &Site{})
	require.ErrorIs(t, err, ErrUnknownLayout)

	r = NewMarkdown(&Nopdown{}, layouts, Options{DefaultLayout: "post", ListingLayout: "archive"})
	layout, err = r.Layout(idx.Pages[1])
	require.NoError(t, err)
	require.Equal(t, "post", layout.Name())
	_, err = r.ListingLayout()
	require.ErrorIs(t, err, ErrUnknownLayout)
}

func TestMarkdownRenderError(t *testing.T) {
	idx := testIndex(t, map[string]string{
		"broken.md": "```go\nfunc main() {}\n",
		"fails.md":  "---\nlayout: post\n---\nBody",
	})
	layoutFS := fstest.MapFS{
		"default.gohtml": {Data: []byte(`{{ .Content }}`)},
		"post.gohtml":    {Data: []byte(`{{ .Page.Param }}`)},
	}
	layouts, err := ParseLayouts(layoutFS, testFuncs())
	require.NoError(t, err)
	r := NewMarkdown(NewGoldmark(MarkdownOptions{}), layouts, Options{})

	tCases := []struct {
		name string
		doc  *model.Document
	}{
		{"unterminated-fence", idx.Pages[0]},
		{"template-execution", idx.Pages[1]},
	}

	for _, tCase := range tCases {
		t.Run(tCase.name, func(t *testing.T) {
			err := r.Page(context.Background(), io.Discard, tCase.doc, &Site{})
			var renderErr *RenderError
			require.True(t, errors.As(err, &renderErr))
			require.Equal(t, tCase.doc.Path(), renderErr.Path)
		})
	}
}

func TestMarkdownList(t *testing.T) {
	idx := testIndex(t, map[string]string{
		"_posts/2021-07-11-a.md": "---\ntitle: A\n---\nFirst *paragraph*.\n\nSecond paragraph.",
		"_posts/2021-07-12-b.md": "---\ntitle: B\nexcerpt: Custom excerpt\n---\nBody of B.",
	})
	r := NewMarkdown(NewGoldmark(MarkdownOptions{}), testLayouts(t), Options{})

	var entries []ListingEntry
	for _, post := range idx.Posts {
		excerpt, err := r.Excerpt(post)
		require.NoError(t, err)
		entries = append(entries, ListingEntry{Post: post, Excerpt: excerpt})
	}

	buf := bytes.NewBuffer(nil)
	listing := &Listing{URL: "/", Entries: entries, Pagination: Pagination{Page: 1, TotalPages: 1}}
	err := r.List(context.Background(), buf, listing, &Site{Title: "John's Blog"})
	require.NoError(t, err)
	// Posts are listed by date descending.
	require.Equal(t, "John&#39;s Blog|[B:<p>Custom excerpt</p>\n][A:<p>First <em>paragraph</em>.</p>\n]1/1", buf.String())

	buf.Reset()
	listing.Category = "go"
	require.NoError(t, r.List(context.Background(), buf, listing, &Site{Title: "John's Blog"}))
	require.Contains(t, buf.String(), "go|")
}

func TestMarkdownExcerpt(t *testing.T) {
	tCases := []struct {
		name     string
		source   string
		expected string
	}{
		{"first paragraph", "First *paragraph*.\n\nSecond paragraph.", "<p>First <em>paragraph</em>.</p>\n"},
		{"explicit", "---\nexcerpt: Custom excerpt\n---\nBody.", "<p>Custom excerpt</p>\n"},
		{"after heading", "# Title\n\nIntro\nspans lines.\n\nMore.", "<p>Intro\nspans lines.</p>\n"},
		{"after code block", "```go\nfunc a() {}\n\nfunc b() {}\n```\n\nAfter.\n", "<p>After.</p>\n"},
		{"no paragraph", "# Only a heading\n", ""},
	}
	r := NewMarkdown(NewGoldmark(MarkdownOptions{}), testLayouts(t), Options{})
	for _, tCase := range tCases {
		t.Run(tCase.name, func(t *testing.T) {
			idx := testIndex(t, map[string]string{"_posts/2021-07-11-a.md": tCase.source})
			excerpt, err := r.Excerpt(idx.Posts[0])
			require.NoError(t, err)
			require.Equal(t, tCase.expected, string(excerpt))
		})
	}
}
