package renderer

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/klingtnet/quire/generator/model"
	"github.com/klingtnet/quire/internal"
	"github.com/klingtnet/quire/slug"
)

// BaseTemplate is the file shared by every layout if present.
const BaseTemplate = "base.gohtml"

const templateExt = ".gohtml"

// Layout renders the content of a page into a complete HTML document.
type Layout interface {
	Name() string
	Execute(w io.Writer, data *TemplateData) error
}

type templateLayout struct {
	name  string
	entry string
	tmpl  *template.Template
}

func (l *templateLayout) Name() string {
	return l.name
}

func (l *templateLayout) Execute(w io.Writer, data *TemplateData) error {
	return l.tmpl.ExecuteTemplate(w, l.entry, data)
}

// Layouts are the named templates available to documents.
type Layouts struct {
	byName map[string]*templateLayout
}

// ParseLayouts parses every *.gohtml file of layoutFS into a layout named after the file without extension.
// base.gohtml and files starting with an underscore are no layouts on their own,
// they are parsed along with every layout so they can be shared.
// If base.gohtml exists rendering starts there, layouts are expected to define the "content" block then.
func ParseLayouts(layoutFS fs.FS, funcs template.FuncMap) (*Layouts, error) {
	files, err := fs.Glob(layoutFS, "*"+templateExt)
	if err != nil {
		return nil, err
	}

	var shared, names []string
	hasBase := false
	for _, file := range files {
		switch {
		case file == BaseTemplate:
			hasBase = true
			shared = append([]string{file}, shared...)
		case strings.HasPrefix(file, "_"):
			shared = append(shared, file)
		default:
			names = append(names, file)
		}
	}
	if len(names) == 0 {
		return nil, ErrNoLayouts
	}

	layouts := &Layouts{byName: make(map[string]*templateLayout, len(names))}
	for _, file := range names {
		name := strings.TrimSuffix(file, templateExt)
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(layoutFS, append(shared, file)...)
		if err != nil {
			return nil, fmt.Errorf("parsing layout %q failed: %w", name, err)
		}

		entry := file
		if hasBase {
			entry = BaseTemplate
		}
		layouts.byName[name] = &templateLayout{name: name, entry: entry, tmpl: tmpl}
	}

	return layouts, nil
}

// Lookup returns the layout with the given name.
func (l *Layouts) Lookup(name string) (Layout, bool) {
	layout, ok := l.byName[name]
	if !ok {
		return nil, false
	}

	return layout, true
}

// Names returns the sorted names of all layouts.
func (l *Layouts) Names() []string {
	names := make([]string, 0, len(l.byName))
	for name := range l.byName {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// AbsLink returns an absolute representation of the given path.
// A trailing slash is kept since it denotes a directory index.
func AbsLink(baseURL string, p string) string {
	link := path.Clean("/" + p)
	if strings.HasSuffix(p, "/") && link != "/" {
		link += "/"
	}

	return strings.TrimSuffix(baseURL, "/") + link
}

// DefaultFuncs returns the functions available in every layout.
// categoryURL maps a category name to the URL of its listing page.
func DefaultFuncs(baseURL string, slugifier *slug.Slugifier, categoryURL func(string) string) template.FuncMap {
	return template.FuncMap{
		"absLink":     func(p string) string { return AbsLink(baseURL, p) },
		"categoryURL": categoryURL,
		"slugify":     slugifier.Slugify,
		"titleCase":   internal.TitleCase,
		"date": func(layout string, t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(layout)
		},
		"isoDate": func(t time.Time) string { return t.Format(time.RFC3339) },
	}
}

// Site is the site wide context every layout has access to.
type Site struct {
	Title       string
	Description string
	Author      string
	BaseURL     string
	Menu        []model.MenuEntry
	Posts       []*model.Document
	Categories  []model.Category

	// Stylesheet is the URL of the compiled stylesheet, empty if there is none.
	Stylesheet string
	// Feed is the URL of the RSS feed, empty if it is disabled.
	Feed string
	// Neighbors returns the adjacent posts of a post, it may be nil.
	Neighbors func(*model.Document) (previous, next *model.Document)
}

// TemplateData contains data used to render page templates.
type TemplateData struct {
	Title, Description string
	// Content is the rendered markdown body of a document, empty for listings.
	Content template.HTML
	// Page is nil for listings.
	Page *model.Document
	// Previous is the next older and Next the next newer post, both are only set for posts.
	Previous, Next *model.Document
	// Listing is only set for listing pages.
	Listing *Listing
	Site    *Site
}

// Listing is a single page of a paginated post list.
type Listing struct {
	// Category is empty for the home listing.
	Category   string
	URL        string
	Entries    []ListingEntry
	Pagination Pagination
}

// ListingEntry is a post with its rendered excerpt.
type ListingEntry struct {
	Post    *model.Document
	Excerpt template.HTML
}

// Pagination links the pages of a listing.
type Pagination struct {
	// Page is the one based number of the current page.
	Page, TotalPages int
	// PreviousURL links to the page with newer posts, NextURL to the one with older posts.
	PreviousURL, NextURL string
}
