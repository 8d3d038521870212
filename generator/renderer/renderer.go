// Package renderer turns documents into HTML pages.
package renderer

import (
	"context"
	"html/template"
	"io"

	"github.com/klingtnet/quire/generator/model"
	"github.com/yuin/goldmark"
)

// Renderer renders documents and listings into HTML pages.
type Renderer interface {
	// Layout resolves the layout of doc without rendering anything.
	Layout(doc *model.Document) (Layout, error)
	// ListingLayout resolves the layout used for listing pages.
	ListingLayout() (Layout, error)
	// Content converts the markdown body of doc.
	Content(doc *model.Document) (template.HTML, error)
	// Excerpt converts the excerpt of doc, the first paragraph of its body if it has no explicit one.
	Excerpt(doc *model.Document) (template.HTML, error)
	Page(ctx context.Context, w io.Writer, doc *model.Document, site *Site) error
	List(ctx context.Context, w io.Writer, listing *Listing, site *Site) error
}

// Options configure the fallback layouts of the Markdown renderer.
type Options struct {
	// DefaultLayout is used for documents without layout field, defaults to "default".
	DefaultLayout string
	// ListingLayout is used for listing pages, defaults to "list".
	ListingLayout string
}

// Markdown renders markdown documents to HTML websites.
type Markdown struct {
	md      goldmark.Markdown
	layouts *Layouts
	opts    Options
}

// NewMarkdown returns an instantiated markdown renderer.
func NewMarkdown(md goldmark.Markdown, layouts *Layouts, opts Options) *Markdown {
	if opts.DefaultLayout == "" {
		opts.DefaultLayout = "default"
	}
	if opts.ListingLayout == "" {
		opts.ListingLayout = "list"
	}

	return &Markdown{
		md:      md,
		layouts: layouts,
		opts:    opts,
	}
}

func (m *Markdown) Layout(doc *model.Document) (Layout, error) {
	name := doc.Layout(m.opts.DefaultLayout)
	layout, ok := m.layouts.Lookup(name)
	if !ok {
		return nil, &UnknownLayoutError{Path: doc.Path(), Layout: name, Known: m.layouts.Names()}
	}

	return layout, nil
}

func (m *Markdown) ListingLayout() (Layout, error) {
	layout, ok := m.layouts.Lookup(m.opts.ListingLayout)
	if !ok {
		return nil, &UnknownLayoutError{Path: "listing", Layout: m.opts.ListingLayout, Known: m.layouts.Names()}
	}

	return layout, nil
}

func (m *Markdown) Content(doc *model.Document) (template.HTML, error) {
	return convert(m.md, doc.Path(), []byte(doc.Body()))
}

func (m *Markdown) Excerpt(doc *model.Document) (template.HTML, error) {
	if excerpt := doc.Excerpt(); excerpt != "" {
		return convert(m.md, doc.Path(), []byte(excerpt))
	}

	return convert(m.md, doc.Path(), firstParagraph(m.md, []byte(doc.Body())))
}

// Page renders a single document with its layout.
func (m *Markdown) Page(ctx context.Context, w io.Writer, doc *model.Document, site *Site) error {
	layout, err := m.Layout(doc)
	if err != nil {
		return err
	}

	content, err := m.Content(doc)
	if err != nil {
		return err
	}

	data := &TemplateData{
		Title:       doc.Title(),
		Description: doc.Description(),
		Content:     content,
		Page:        doc,
		Site:        site,
	}
	if doc.Kind() != model.KindPage && site.Neighbors != nil {
		data.Previous, data.Next = site.Neighbors(doc)
	}

	err = layout.Execute(w, data)
	if err != nil {
		return &RenderError{Path: doc.Path(), Err: err}
	}

	return ctx.Err()
}

// List renders a listing page.
func (m *Markdown) List(ctx context.Context, w io.Writer, listing *Listing, site *Site) error {
	layout, err := m.ListingLayout()
	if err != nil {
		return err
	}

	title, description := site.Title, site.Description
	if listing.Category != "" {
		title, description = listing.Category, "Posts in "+listing.Category
	}

	data := &TemplateData{
		Title:       title,
		Description: description,
		Listing:     listing,
		Site:        site,
	}
	err = layout.Execute(w, data)
	if err != nil {
		return &RenderError{Path: listing.URL, Err: err}
	}

	return ctx.Err()
}
