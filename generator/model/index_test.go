package model

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/klingtnet/quire/frontmatter"
	"github.com/klingtnet/quire/internal/testutils"
)

func paths(docs []*Document) []string {
	result := make([]string, 0, len(docs))
	for _, doc := range docs {
		result = append(result, doc.Path())
	}

	return result
}

func mdFile(content string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(content)}
}

func TestBuildIndex(t *testing.T) {
	idx, err := BuildIndex(context.Background(), testutils.NewTestContentFS(t), IndexOptions{})
	require.NoError(t, err)

	require.Equal(t, []string{
		"_posts/2021-06-02-example.md",
		"_posts/2021-05-01-first-post.md",
	}, paths(idx.Posts))
	require.Equal(t, []string{"about.md"}, paths(idx.Pages))
	require.ElementsMatch(t, []string{"assets/site.scss", "files/random.txt"}, idx.Assets)

	example := idx.Posts[0]
	require.Equal(t, KindPost, example.Kind())
	require.Equal(t, "Example", example.Title())
	require.Equal(t, "example", example.Slug())
	require.Equal(t, "post", example.Layout("default"))
	require.Equal(t, time.Date(2021, 6, 2, 0, 0, 0, 0, time.UTC), example.Date())
	require.Equal(t, "/2021/example/", example.URL())
	require.Equal(t, "2021/example/index.html", example.OutputPath())
	require.Equal(t, "# Hi\n", example.Body())

	first := idx.Posts[1]
	require.Equal(t, time.Date(2021, 5, 1, 10, 0, 0, 0, time.UTC), first.Date())
	require.Equal(t, []string{"notes", "go"}, first.Categories())
	require.Equal(t, "default", first.Layout("default"))
	require.Empty(t, first.Excerpt())

	about := idx.Pages[0]
	require.Equal(t, KindPage, about.Kind())
	require.Equal(t, "/about/", about.URL())
	require.Equal(t, "about/index.html", about.OutputPath())
	require.True(t, about.Date().IsZero())

	categories := idx.Categories()
	require.Len(t, categories, 2)
	require.Equal(t, "go", categories[0].Name)
	require.Equal(t, []string{"_posts/2021-05-01-first-post.md"}, paths(categories[0].Posts))
	require.Equal(t, "notes", categories[1].Name)
	require.Equal(t, []string{"_posts/2021-06-02-example.md", "_posts/2021-05-01-first-post.md"}, paths(categories[1].Posts))
}

func TestBuildIndexDrafts(t *testing.T) {
	contentFS := fstest.MapFS{
		"_posts/2021-06-02-post.md": mdFile("Published."),
		"_drafts/dated.md":          mdFile("---\ndate: 2021-07-01\n---\nDated draft."),
		"_drafts/undated.md": &fstest.MapFile{
			Data:    []byte("Undated draft."),
			ModTime: time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC),
		},
		"_drafts/broken.md": mdFile("---\nnever closed"),
	}

	t.Run("excluded", func(t *testing.T) {
		idx, err := BuildIndex(context.Background(), contentFS, IndexOptions{})
		require.NoError(t, err, "drafts are not even parsed when excluded")
		require.Equal(t, []string{"_posts/2021-06-02-post.md"}, paths(idx.Posts))
	})

	t.Run("included", func(t *testing.T) {
		delete(contentFS, "_drafts/broken.md")
		idx, err := BuildIndex(context.Background(), contentFS, IndexOptions{IncludeDrafts: true})
		require.NoError(t, err)
		require.Equal(t, []string{
			"_drafts/dated.md",
			"_posts/2021-06-02-post.md",
			"_drafts/undated.md",
		}, paths(idx.Posts))
		require.Equal(t, KindDraft, idx.Posts[0].Kind())
		require.Equal(t, "/2020/undated/", idx.Posts[2].URL())
	})
}

func TestPostOrdering(t *testing.T) {
	contentFS := fstest.MapFS{
		"_posts/2021-01-01-b.md": mdFile("b"),
		"_posts/2021-01-01-a.md": mdFile("a"),
		"_posts/2020-12-31-z.md": mdFile("z"),
		"_posts/2021-03-01-c.md": mdFile("c"),
		// The front-matter date wins over the file name.
		"_posts/1999-01-01-d.md": mdFile("---\ndate: 2021-02-01\n---\nd"),
	}

	idx, err := BuildIndex(context.Background(), contentFS, IndexOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{
		"_posts/2021-03-01-c.md",
		"_posts/1999-01-01-d.md",
		"_posts/2021-01-01-a.md",
		"_posts/2021-01-01-b.md",
		"_posts/2020-12-31-z.md",
	}, paths(idx.Posts))
	require.Equal(t, "/2021/d/", idx.Posts[1].URL())

	for i := 1; i < len(idx.Posts); i++ {
		a, b := idx.Posts[i-1], idx.Posts[i]
		require.False(t, a.Date().Before(b.Date()))
		if a.Date().Equal(b.Date()) {
			require.Less(t, a.Path(), b.Path())
		}
	}

	previous, next := idx.Neighbors(idx.Posts[0])
	require.Equal(t, idx.Posts[1], previous)
	require.Nil(t, next)
	previous, next = idx.Neighbors(idx.Posts[4])
	require.Nil(t, previous)
	require.Equal(t, idx.Posts[3], next)
	previous, next = idx.Neighbors(&Document{})
	require.Nil(t, previous)
	require.Nil(t, next)
}

func TestBuildIndexErrors(t *testing.T) {
	tCases := []struct {
		name      string
		contentFS fstest.MapFS
		path      string
		err       error
	}{
		{
			"malformed front-matter",
			fstest.MapFS{"about.md": mdFile("---\ntitle: About\n\nNo closing delimiter.")},
			"about.md",
			frontmatter.ErrMalformed,
		},
		{
			"missing date",
			fstest.MapFS{"_posts/undated.md": mdFile("---\ntitle: Undated\n---\nbody")},
			"_posts/undated.md",
			ErrMissingDate,
		},
		{
			"invalid front-matter date",
			fstest.MapFS{"_posts/post.md": mdFile("---\ndate: yesterday-ish\n---\nbody")},
			"_posts/post.md",
			ErrInvalidDate,
		},
		{
			"invalid file name date",
			fstest.MapFS{"_posts/2021-13-45-post.md": mdFile("body")},
			"_posts/2021-13-45-post.md",
			ErrInvalidDate,
		},
		{
			"empty body",
			fstest.MapFS{"empty.md": mdFile("---\ntitle: Empty\n---\n   \n")},
			"empty.md",
			ErrEmptyBody,
		},
	}
	for _, tCase := range tCases {
		t.Run(tCase.name, func(t *testing.T) {
			_, err := BuildIndex(context.Background(), tCase.contentFS, IndexOptions{})
			require.ErrorIs(t, err, tCase.err)

			var docErr *DocumentError
			require.True(t, errors.As(err, &docErr))
			require.Equal(t, tCase.path, docErr.Path)
		})
	}
}

func TestBuildIndexDuplicatePath(t *testing.T) {
	contentFS := fstest.MapFS{
		"_posts/2021-01-01-example.md": mdFile("first"),
		"_posts/2021-06-02-example.md": mdFile("second"),
	}

	_, err := BuildIndex(context.Background(), contentFS, IndexOptions{})
	require.ErrorIs(t, err, ErrDuplicatePath)

	var dupErr *DuplicatePathError
	require.True(t, errors.As(err, &dupErr))
	require.Equal(t, "2021/example/index.html", dupErr.Output)
	require.Equal(t, "_posts/2021-01-01-example.md", dupErr.First)
	require.Equal(t, "_posts/2021-06-02-example.md", dupErr.Second)
}

func TestBuildIndexOptions(t *testing.T) {
	contentFS := fstest.MapFS{
		"index.md":                     mdFile("Home"),
		"docs/index.md":                mdFile("Docs"),
		"docs/setup-guide.md":          mdFile("Setup"),
		"blog/2022-02-02-custom.md":    mdFile("---\nslug: Own Slug\ncategories: Go\n---\nx"),
		"blog/2022-02-03-fixed.md":     mdFile("---\npermalink: /fixed.html\n---\nx"),
		"vendor/ignored.md":            mdFile("---\nbroken"),
		".git/config":                  mdFile("ignored"),
		".hidden.md":                   mdFile("---\nbroken"),
		"notes.markdown":               mdFile("Notes"),
		"docs/diagram.svg":             mdFile("<svg/>"),
		"drafts-in-blog/2022-01-01.md": mdFile("no name after date"),
	}
	classifier, err := NewClassifier([]Rule{{Pattern: "blog/**", Kind: KindPost}})
	require.NoError(t, err)

	idx, err := BuildIndex(context.Background(), contentFS, IndexOptions{
		Classifier: classifier,
		Exclude:    []string{"vendor/**", "drafts-in-blog/**"},
		Permalinks: Permalinks{KindPost: "/:categories/:year/:month/:day/:slug.html"},
	})
	require.NoError(t, err)

	require.Equal(t, []string{"blog/2022-02-03-fixed.md", "blog/2022-02-02-custom.md"}, paths(idx.Posts))
	require.Equal(t, "/fixed.html", idx.Posts[0].URL())
	require.Equal(t, "fixed.html", idx.Posts[0].OutputPath())
	require.Equal(t, "/go/2022/02/02/own-slug.html", idx.Posts[1].URL())
	require.Equal(t, "Custom", idx.Posts[1].Title())

	urls := map[string]string{}
	titles := map[string]string{}
	for _, page := range idx.Pages {
		urls[page.Path()] = page.URL()
		titles[page.Path()] = page.Title()
	}
	require.Equal(t, map[string]string{
		"index.md":            "/",
		"docs/index.md":       "/docs/",
		"docs/setup-guide.md": "/docs/setup-guide/",
		"notes.markdown":      "/notes/",
	}, urls)
	require.Equal(t, "Home", titles["index.md"])
	require.Equal(t, "Docs", titles["docs/index.md"])
	require.Equal(t, "Setup Guide", titles["docs/setup-guide.md"])
	require.Equal(t, []string{"docs/diagram.svg"}, idx.Assets)
}

func TestCleanURL(t *testing.T) {
	tCases := []struct {
		name, expanded, url, output string
	}{
		{"root", "/", "/", "index.html"},
		{"empty segments", "//2021//example/", "/2021/example/", "2021/example/index.html"},
		{"no trailing slash", "/about", "/about/", "about/index.html"},
		{"file", "/feed.xml", "/feed.xml", "feed.xml"},
		{"dotted directory", "/v1.2/", "/v1.2/", "v1.2/index.html"},
		{"traversal", "/../../etc/passwd", "/etc/passwd/", "etc/passwd/index.html"},
	}
	for _, tCase := range tCases {
		t.Run(tCase.name, func(t *testing.T) {
			url, output := CleanURL(tCase.expanded)
			require.Equal(t, tCase.url, url)
			require.Equal(t, tCase.output, output)
		})
	}
}

func TestPermalinksValidate(t *testing.T) {
	require.NoError(t, DefaultPermalinks().Validate())
	require.ErrorIs(t, Permalinks{KindPost: ":year/:slug/"}.Validate(), ErrBadPermalink)
	require.ErrorIs(t, Permalinks{"article": "/:slug/"}.Validate(), ErrBadPermalink)
}

func TestClassifier(t *testing.T) {
	classifier, err := NewClassifier(DefaultRules())
	require.NoError(t, err)

	require.Equal(t, KindPost, classifier.Classify("_posts/2021-06-02-example.md"))
	require.Equal(t, KindPost, classifier.Classify("_posts/2021/2021-06-02-example.md"))
	require.Equal(t, KindDraft, classifier.Classify("_drafts/idea.md"))
	require.Equal(t, KindPage, classifier.Classify("about.md"))
	require.Equal(t, KindPage, classifier.Classify("blog/_posts/nested.md"))

	_, err = NewClassifier([]Rule{{Pattern: "[", Kind: KindPost}})
	require.ErrorIs(t, err, ErrBadRule)
	_, err = NewClassifier([]Rule{{Pattern: "posts/**", Kind: "article"}})
	require.ErrorIs(t, err, ErrBadRule)
}
