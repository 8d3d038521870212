package generator

import (
	"bytes"
	"context"
	"html/template"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/klingtnet/quire/generator/model"
	"github.com/klingtnet/quire/generator/renderer"
	"github.com/klingtnet/quire/internal/distribute"
	"github.com/klingtnet/quire/slug"
)

// listingPage is a single page of the home or a category listing.
type listingPage struct {
	output  string
	listing *renderer.Listing
	posts   []*model.Document
}

// CategoryURL returns the URL of the listing of the category called name.
func (c *Config) CategoryURL(slugifier *slug.Slugifier, name string) string {
	url, _ := model.CleanURL(strings.ReplaceAll(c.CategoryPath, ":category", slugifier.Slugify(name)))
	return url
}

// pageURL returns the URL of the n-th page of the listing at base.
func (c *Config) pageURL(base string, n int) (url, output string) {
	if n == 1 {
		return model.CleanURL(base)
	}

	return model.CleanURL(path.Join(base, strings.ReplaceAll(c.PaginatePath, ":num", strconv.Itoa(n))) + "/")
}

// paginate splits posts into pages of the listing at base.
func (c *Config) paginate(base, category string, posts []*model.Document) []listingPage {
	size := c.Paginate
	if size <= 0 || size > len(posts) {
		size = len(posts)
	}
	total := 1
	if size > 0 {
		total = (len(posts) + size - 1) / size
	}

	pages := make([]listingPage, 0, total)
	for n := 1; n <= total; n++ {
		start, end := (n-1)*size, n*size
		if end > len(posts) {
			end = len(posts)
		}

		url, output := c.pageURL(base, n)
		listing := &renderer.Listing{
			Category:   category,
			URL:        url,
			Pagination: renderer.Pagination{Page: n, TotalPages: total},
		}
		if n > 1 {
			listing.Pagination.PreviousURL, _ = c.pageURL(base, n-1)
		}
		if n < total {
			listing.Pagination.NextURL, _ = c.pageURL(base, n+1)
		}
		pages = append(pages, listingPage{output: output, listing: listing, posts: posts[start:end]})
	}

	return pages
}

// listings returns the pages of the home listing followed by those of every category.
// The home listing is left out if a document already occupies the root URL.
func (g *Generator) listings(idx *model.SiteIndex) []listingPage {
	var pages []listingPage

	home := true
	for _, doc := range idx.Documents() {
		if doc.URL() == "/" {
			home = false
			break
		}
	}
	if home {
		pages = append(pages, g.config.paginate("/", "", idx.Posts)...)
	}

	for _, category := range idx.Categories() {
		base := g.config.CategoryURL(g.slugifier, category.Name)
		pages = append(pages, g.config.paginate(base, category.Name, category.Posts)...)
	}

	return pages
}

// excerpts converts the excerpt of every post once.
type excerpts struct {
	mu     sync.Mutex
	byPost map[*model.Document]template.HTML
}

func (e *excerpts) get(r renderer.Renderer, post *model.Document) (template.HTML, error) {
	e.mu.Lock()
	excerpt, ok := e.byPost[post]
	e.mu.Unlock()
	if ok {
		return excerpt, nil
	}

	excerpt, err := r.Excerpt(post)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	e.byPost[post] = excerpt
	e.mu.Unlock()

	return excerpt, nil
}

func (g *Generator) renderListings(ctx context.Context, b *build) error {
	cache := &excerpts{byPost: make(map[*model.Document]template.HTML)}

	return distribute.Each(ctx, b.listings, func(ctx context.Context, page listingPage) error {
		page.listing.Entries = make([]renderer.ListingEntry, 0, len(page.posts))
		for _, post := range page.posts {
			excerpt, err := cache.get(g.renderer, post)
			if err != nil {
				return err
			}
			page.listing.Entries = append(page.listing.Entries, renderer.ListingEntry{Post: post, Excerpt: excerpt})
		}

		buf := bytes.NewBuffer(make([]byte, 0, 8192))
		err := g.renderer.List(ctx, buf, page.listing, b.site)
		if err != nil {
			return err
		}
		b.put(page.output, buf.Bytes())

		return nil
	}, g.concurrency)
}
