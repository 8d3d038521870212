package model

import (
	"strings"
	"time"

	"github.com/klingtnet/quire/frontmatter"
)

// Kind classifies a document.
type Kind string

const (
	// KindPost is a dated article that is listed on the home and category pages.
	KindPost Kind = "post"
	// KindDraft is an unpublished post, only rendered when drafts are included.
	KindDraft Kind = "draft"
	// KindPage is a standalone page, e.g. an about page.
	KindPage Kind = "page"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindPost, KindDraft, KindPage:
		return true
	default:
		return false
	}
}

// Document is a parsed content file.
// It is created once per build by BuildIndex and not modified afterwards.
type Document struct {
	path     string
	meta     frontmatter.Metadata
	body     string
	kind     Kind
	date     time.Time
	slug     string
	title    string
	url      string
	output   string
	category []string
}

// NewDocument returns a Document for the source file at path.
// Derived values like date and permalink are resolved by BuildIndex.
func NewDocument(path string, meta frontmatter.Metadata, body string, kind Kind) (*Document, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyBody
	}
	if meta == nil {
		meta = frontmatter.Metadata{}
	}

	return &Document{
		path:     path,
		meta:     meta,
		body:     body,
		kind:     kind,
		category: categories(meta),
	}, nil
}

func categories(meta frontmatter.Metadata) []string {
	seen := map[string]bool{}
	var result []string
	for _, name := range strings.Fields(meta.Get("category") + " " + meta.Get("categories")) {
		if !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}

	return result
}

// Path of the source file relative to the content root.
func (d *Document) Path() string { return d.path }

// Kind of the document.
func (d *Document) Kind() Kind { return d.kind }

// Body returns the raw markdown following the front-matter.
func (d *Document) Body() string { return d.body }

// Param returns the front-matter value for key.
func (d *Document) Param(key string) string { return d.meta.Get(key) }

// Metadata returns a copy of the front-matter.
func (d *Document) Metadata() frontmatter.Metadata {
	meta := make(frontmatter.Metadata, len(d.meta))
	for key, value := range d.meta {
		meta[key] = value
	}

	return meta
}

// Layout returns the declared layout or fallback if the document does not declare one.
func (d *Document) Layout(fallback string) string {
	if layout := d.meta.Get("layout"); layout != "" {
		return layout
	}

	return fallback
}

// Date is the publication date, zero for undated pages.
func (d *Document) Date() time.Time { return d.date }

// Slug is the URL-safe name of the document.
func (d *Document) Slug() string { return d.slug }

// Title is taken from the front-matter or derived from the file name.
func (d *Document) Title() string { return d.title }

// Description is the front-matter description, if any.
func (d *Document) Description() string { return d.meta.Get("description") }

// Categories lists the categories in declaration order.
func (d *Document) Categories() []string { return d.category }

// URL is the permalink of the document relative to the site root, e.g. /2021/example/.
func (d *Document) URL() string { return d.url }

// OutputPath is the slash-separated path of the rendered file inside the output directory.
func (d *Document) OutputPath() string { return d.output }

// Hidden reports whether the document is excluded from the navigation menu.
func (d *Document) Hidden() bool { return d.meta.Get("hidden") == "true" }

// Excerpt returns the markdown summary from the excerpt front-matter value, empty if unset.
func (d *Document) Excerpt() string { return d.meta.Get("excerpt") }
