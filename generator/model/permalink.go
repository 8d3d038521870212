package model

import (
	"fmt"
	"path"
	"strings"

	"github.com/klingtnet/quire/slug"
)

// ErrBadPermalink indicates a permalink pattern that is not rooted.
var ErrBadPermalink = fmt.Errorf("bad permalink")

// Permalinks maps a document kind to its permalink pattern.
//
// Patterns may use the placeholders :year, :month, :day, :slug, :title, :categories and :dir.
// A pattern ending in a slash is written as index.html inside that directory.
type Permalinks map[Kind]string

// DefaultPermalinks puts posts below their year and pages below their source directory.
func DefaultPermalinks() Permalinks {
	return Permalinks{
		KindPost:  "/:year/:slug/",
		KindDraft: "/:year/:slug/",
		KindPage:  "/:dir/:slug/",
	}
}

// Validate checks that every pattern is rooted and assigned to a known kind.
func (p Permalinks) Validate() error {
	for kind, pattern := range p {
		if !kind.Valid() {
			return fmt.Errorf("%w: unknown kind %q", ErrBadPermalink, kind)
		}
		if !strings.HasPrefix(pattern, "/") {
			return fmt.Errorf("%w: %q must start with a slash", ErrBadPermalink, pattern)
		}
	}

	return nil
}

// expandPermalink fills in the placeholders of pattern for doc and returns the URL and output path.
func expandPermalink(pattern string, doc *Document, sl *slug.Slugifier) (url, output string) {
	var year, month, day string
	if !doc.date.IsZero() {
		year, month, day = doc.date.Format("2006"), doc.date.Format("01"), doc.date.Format("02")
	}

	categories := make([]string, 0, len(doc.category))
	for _, category := range doc.category {
		categories = append(categories, sl.Slugify(category))
	}

	dir := path.Dir(doc.path)
	if dir == "." {
		dir = ""
	}

	expanded := strings.NewReplacer(
		":year", year,
		":month", month,
		":day", day,
		":slug", doc.slug,
		":title", doc.slug,
		":categories", strings.Join(categories, "/"),
		":dir", dir,
	).Replace(pattern)

	return CleanURL(expanded)
}

// CleanURL normalizes an expanded permalink and derives the file it is written to.
func CleanURL(expanded string) (url, output string) {
	url = path.Clean("/" + expanded)
	if url == "/" {
		return url, "index.html"
	}

	if path.Ext(url) != "" && !strings.HasSuffix(expanded, "/") {
		return url, strings.TrimPrefix(url, "/")
	}

	return url + "/", strings.TrimPrefix(url, "/") + "/index.html"
}
