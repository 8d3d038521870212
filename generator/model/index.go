// Package model discovers, classifies and orders the content of a site.
package model

import (
	"context"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/klingtnet/quire/frontmatter"
	"github.com/klingtnet/quire/internal"
	"github.com/klingtnet/quire/slug"
)

// IndexOptions control how BuildIndex treats the content tree.
// Zero values are replaced with defaults.
type IndexOptions struct {
	Classifier    *Classifier
	Permalinks    Permalinks
	Slugifier     *slug.Slugifier
	Location      *time.Location
	IncludeDrafts bool
	// Exclude lists doublestar patterns of paths that are ignored entirely.
	Exclude []string
	// Extensions of markdown files, every other file is an asset.
	Extensions []string
}

func (opts *IndexOptions) setDefaults() {
	if opts.Classifier == nil {
		opts.Classifier = &Classifier{rules: DefaultRules()}
	}
	permalinks := DefaultPermalinks()
	for kind, pattern := range opts.Permalinks {
		permalinks[kind] = pattern
	}
	opts.Permalinks = permalinks
	if opts.Slugifier == nil {
		opts.Slugifier = slug.NewSlugifier('-')
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".md", ".markdown"}
	}
}

func (opts *IndexOptions) isMarkdown(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	for _, candidate := range opts.Extensions {
		if ext == candidate {
			return true
		}
	}

	return false
}

// Category groups the posts sharing a category name.
type Category struct {
	Name  string
	Slug  string
	Posts []*Document
}

// SiteIndex holds all documents of a build.
type SiteIndex struct {
	// Posts in descending order of their date, ties are ordered by path.
	// Included drafts are listed alongside posts.
	Posts []*Document
	// Pages in order of their path.
	Pages []*Document
	// Assets are paths of files that are copied verbatim.
	Assets []string

	categories []Category
	position   map[*Document]int
}

// BuildIndex walks contentFS, parses every markdown file and orders the resulting documents.
// The first malformed document aborts the walk.
func BuildIndex(ctx context.Context, contentFS fs.FS, opts IndexOptions) (*SiteIndex, error) {
	opts.setDefaults()

	idx := &SiteIndex{}
	outputs := make(map[string]string)
	err := fs.WalkDir(contentFS, ".", func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == "." {
			return nil
		}

		if strings.HasPrefix(entry.Name(), ".") || matchAny(opts.Exclude, p) {
			if entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return ctx.Err()
		}

		if !opts.isMarkdown(p) {
			idx.Assets = append(idx.Assets, p)
			return nil
		}

		kind := opts.Classifier.Classify(p)
		if kind == KindDraft && !opts.IncludeDrafts {
			return nil
		}

		doc, err := readDocument(contentFS, p, entry, kind, &opts)
		if err != nil {
			return &DocumentError{Path: p, Err: err}
		}

		if first, ok := outputs[doc.output]; ok {
			return &DuplicatePathError{Output: doc.output, First: first, Second: p}
		}
		outputs[doc.output] = p

		if kind == KindPage {
			idx.Pages = append(idx.Pages, doc)
		} else {
			idx.Posts = append(idx.Posts, doc)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	SortPosts(idx.Posts)
	idx.position = make(map[*Document]int, len(idx.Posts))
	for i, post := range idx.Posts {
		idx.position[post] = i
	}
	idx.categories = groupCategories(idx.Posts, opts.Slugifier)

	return idx, nil
}

func readDocument(contentFS fs.FS, p string, entry fs.DirEntry, kind Kind, opts *IndexOptions) (*Document, error) {
	data, err := fs.ReadFile(contentFS, p)
	if err != nil {
		return nil, err
	}

	meta, body, err := frontmatter.Parse(data)
	if err != nil {
		return nil, err
	}

	doc, err := NewDocument(p, meta, body, kind)
	if err != nil {
		return nil, err
	}

	stem := strings.TrimSuffix(path.Base(p), path.Ext(p))
	fileDate, name, dated := splitDatedName(stem)

	switch {
	case meta.Get("date") != "":
		doc.date, err = parseDate(meta.Get("date"), opts.Location)
	case dated:
		doc.date, err = parseFilenameDate(fileDate, opts.Location)
	case kind == KindPost:
		err = ErrMissingDate
	case kind == KindDraft:
		var info fs.FileInfo
		info, err = entry.Info()
		if err == nil {
			doc.date = info.ModTime().In(opts.Location)
		}
	}
	if err != nil {
		return nil, err
	}

	switch {
	case meta.Get("slug") != "":
		doc.slug = opts.Slugifier.Slugify(meta.Get("slug"))
	case kind == KindPage && name == "index":
		// Index pages represent their directory.
	default:
		doc.slug = opts.Slugifier.Slugify(name)
	}

	doc.title = meta.Get("title")
	if doc.title == "" {
		doc.title = defaultTitle(p, name)
	}

	pattern := meta.Get("permalink")
	if pattern == "" {
		pattern = opts.Permalinks[kind]
	}
	doc.url, doc.output = expandPermalink(pattern, doc, opts.Slugifier)

	return doc, nil
}

func defaultTitle(p, name string) string {
	if name != "index" {
		return internal.Humanize(name)
	}

	dir := path.Dir(p)
	if dir == "." {
		return "Home"
	}

	return internal.Humanize(path.Base(dir))
}

// SortPosts orders posts by descending date, posts of the same date by ascending path.
func SortPosts(posts []*Document) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		if !a.date.Equal(b.date) {
			return a.date.After(b.date)
		}

		return a.path < b.path
	})
}

func groupCategories(posts []*Document, sl *slug.Slugifier) []Category {
	bySlug := make(map[string]int)
	var categories []Category
	for _, post := range posts {
		for _, name := range post.category {
			categorySlug := sl.Slugify(name)
			i, ok := bySlug[categorySlug]
			if !ok {
				i = len(categories)
				bySlug[categorySlug] = i
				categories = append(categories, Category{Name: name, Slug: categorySlug})
			}
			categories[i].Posts = append(categories[i].Posts, post)
		}
	}

	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Slug < categories[j].Slug
	})

	return categories
}

// Categories returns all categories ordered by slug.
// Posts within a category keep the order of Posts.
func (idx *SiteIndex) Categories() []Category {
	return idx.categories
}

// Documents returns posts followed by pages.
func (idx *SiteIndex) Documents() []*Document {
	docs := make([]*Document, 0, len(idx.Posts)+len(idx.Pages))
	docs = append(docs, idx.Posts...)

	return append(docs, idx.Pages...)
}

// Neighbors returns the next older and the next newer post of doc.
// Both are nil for documents that are not listed in Posts.
func (idx *SiteIndex) Neighbors(doc *Document) (previous, next *Document) {
	i, ok := idx.position[doc]
	if !ok {
		return nil, nil
	}

	if i+1 < len(idx.Posts) {
		previous = idx.Posts[i+1]
	}
	if i > 0 {
		next = idx.Posts[i-1]
	}

	return previous, next
}
