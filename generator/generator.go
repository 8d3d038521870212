// Package generator implements the static site generator.
package generator

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/klingtnet/quire/generator/model"
	"github.com/klingtnet/quire/generator/renderer"
	"github.com/klingtnet/quire/internal/distribute"
	"github.com/klingtnet/quire/slug"
	"github.com/klingtnet/quire/stylesheet"
)

//go:embed templates/*.gohtml
var defaultTemplateFS embed.FS

// DefaultTemplateFS returns the embedded default layouts.
func DefaultTemplateFS() fs.FS {
	templateFS, err := fs.Sub(defaultTemplateFS, "templates")
	if err != nil {
		panic(err)
	}
	return templateFS
}

//go:embed static/style.scss
var defaultStylesheet []byte

// DefaultStylesheet returns the source of the embedded default stylesheet.
func DefaultStylesheet() []byte {
	return append([]byte(nil), defaultStylesheet...)
}

type Generator struct {
	concurrency        int
	sourceFS, staticFS fs.FS
	stor               Storage
	slugifier          *slug.Slugifier
	renderer           renderer.Renderer
	config             *Config
	logger             *slog.Logger
}

// Option configures optional Generator settings.
type Option func(*Generator)

// WithLogger sets the logger for build progress, the default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithConcurrency sets the number of concurrent workers, the default is the number of CPUs.
func WithConcurrency(concurrency int) Option {
	return func(g *Generator) {
		g.concurrency = concurrency
	}
}

// New returns a new Generator instance.
// staticFS is optional, its files are copied to the output unchanged.
// config is expected to have its defaults applied.
func New(
	config *Config,
	sourceFS, staticFS fs.FS,
	stor Storage,
	slugifier *slug.Slugifier,
	renderer renderer.Renderer,
	opts ...Option,
) *Generator {
	g := &Generator{
		config:      config,
		concurrency: runtime.NumCPU(),
		sourceFS:    sourceFS,
		staticFS:    staticFS,
		stor:        stor,
		slugifier:   slugifier,
		renderer:    renderer,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// NewRenderer parses the layouts of layoutFS and returns a markdown renderer configured by config.
// The embedded default layouts are used if layoutFS is nil.
func NewRenderer(config *Config, layoutFS fs.FS, slugifier *slug.Slugifier) (*renderer.Markdown, error) {
	if layoutFS == nil {
		layoutFS = DefaultTemplateFS()
	}

	funcs := renderer.DefaultFuncs(config.BaseURL, slugifier, func(name string) string {
		return config.CategoryURL(slugifier, name)
	})
	layouts, err := renderer.ParseLayouts(layoutFS, funcs)
	if err != nil {
		return nil, fmt.Errorf("parsing layouts failed: %w", err)
	}

	return renderer.NewMarkdown(
		renderer.NewGoldmark(config.Markdown),
		layouts,
		renderer.Options{DefaultLayout: config.DefaultLayout, ListingLayout: config.ListingLayout},
	), nil
}

// copyJob is a file that is copied unchanged.
type copyJob struct {
	fsys fs.FS
	path string
}

// build holds the state of a single run.
// Outputs are kept in memory until every page rendered successfully.
type build struct {
	index    *model.SiteIndex
	site     *renderer.Site
	claims   map[string]string
	listings []listingPage
	copies   []copyJob

	mu      sync.Mutex
	outputs map[string][]byte
}

// claim reserves an output path for source.
func (b *build) claim(output, source string) error {
	if first, ok := b.claims[output]; ok {
		return &model.DuplicatePathError{Output: output, First: first, Second: source}
	}
	b.claims[output] = source

	return nil
}

func (b *build) put(output string, data []byte) {
	b.mu.Lock()
	b.outputs[output] = data
	b.mu.Unlock()
}

func (g *Generator) site(idx *model.SiteIndex) *renderer.Site {
	site := &renderer.Site{
		Title:       g.config.Title,
		Description: g.config.Description,
		Author:      g.config.Author,
		BaseURL:     g.config.BaseURL,
		Menu:        idx.Menu(),
		Posts:       idx.Posts,
		Categories:  idx.Categories(),
		Stylesheet:  "/" + g.stylesheetOutput(),
		Neighbors:   idx.Neighbors,
	}
	if !g.config.Feed.Disabled {
		site.Feed = "/" + g.feedOutput()
	}

	return site
}

func cleanOutput(p string) string {
	return path.Clean("/" + filepath.ToSlash(p))[1:]
}

func (g *Generator) stylesheetOutput() string {
	return cleanOutput(g.config.StylesheetOutput)
}

func (g *Generator) feedOutput() string {
	return cleanOutput(g.config.Feed.Path)
}

// plan claims every output path and resolves all layouts before anything is rendered.
func (g *Generator) plan(ctx context.Context, b *build) error {
	for _, doc := range b.index.Documents() {
		err := b.claim(doc.OutputPath(), doc.Path())
		if err != nil {
			return err
		}

		_, err = g.renderer.Layout(doc)
		if err != nil {
			return err
		}
	}

	b.listings = g.listings(b.index)
	if len(b.listings) > 0 {
		_, err := g.renderer.ListingLayout()
		if err != nil {
			return err
		}
	}
	for _, page := range b.listings {
		err := b.claim(page.output, "listing "+page.listing.URL)
		if err != nil {
			return err
		}
	}

	if !g.config.Feed.Disabled {
		err := b.claim(g.feedOutput(), "feed")
		if err != nil {
			return err
		}
	}
	err := b.claim(g.stylesheetOutput(), "stylesheet")
	if err != nil {
		return err
	}

	stylesheetSource := ""
	if g.config.Stylesheet != "" {
		stylesheetSource = cleanOutput(g.config.Stylesheet)
	}
	for _, asset := range b.index.Assets {
		if asset == stylesheetSource {
			continue
		}
		err := b.claim(asset, asset)
		if err != nil {
			return err
		}
		b.copies = append(b.copies, copyJob{g.sourceFS, asset})
	}

	if g.staticFS == nil {
		return nil
	}

	return fs.WalkDir(g.staticFS, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return ctx.Err()
		}

		err = b.claim(p, "static "+p)
		if err != nil {
			return err
		}
		b.copies = append(b.copies, copyJob{g.staticFS, p})

		return nil
	})
}

func (g *Generator) renderDocuments(ctx context.Context, b *build) error {
	return distribute.Each(ctx, b.index.Documents(), func(ctx context.Context, doc *model.Document) error {
		buf := bytes.NewBuffer(make([]byte, 0, 8192))
		err := g.renderer.Page(ctx, buf, doc, b.site)
		if err != nil {
			return err
		}
		b.put(doc.OutputPath(), buf.Bytes())

		return nil
	}, g.concurrency)
}

func (g *Generator) compileStylesheet(b *build) error {
	src, name := defaultStylesheet, "default stylesheet"
	if g.config.Stylesheet != "" {
		var err error
		name = cleanOutput(g.config.Stylesheet)
		src, err = fs.ReadFile(g.sourceFS, name)
		if err != nil {
			return err
		}
	}

	css, err := stylesheet.Compile(src)
	if err != nil {
		return fmt.Errorf("compiling %s failed: %w", name, err)
	}
	b.put(g.stylesheetOutput(), css)

	return nil
}

// commit stores all rendered outputs and copies assets and static files.
func (g *Generator) commit(ctx context.Context, b *build) error {
	names := make([]string, 0, len(b.outputs))
	for name := range b.outputs {
		names = append(names, name)
	}
	sort.Strings(names)

	err := distribute.Each(ctx, names, func(ctx context.Context, name string) error {
		g.logger.Debug("writing output", "path", name)
		return g.stor.Store(ctx, name, bytes.NewReader(b.outputs[name]))
	}, g.concurrency)
	if err != nil {
		return err
	}

	err = distribute.Each(ctx, b.copies, func(ctx context.Context, job copyJob) error {
		src, err := job.fsys.Open(job.path)
		if err != nil {
			return err
		}
		defer src.Close()

		g.logger.Debug("copying file", "path", job.path)
		return g.stor.Store(ctx, job.path, src)
	}, g.concurrency)
	if err != nil {
		return fmt.Errorf("copying files failed: %w", err)
	}

	return nil
}

// Run generates the website.
// Nothing is written unless every document, listing, the feed and the stylesheet rendered successfully.
func (g *Generator) Run(ctx context.Context) error {
	start := time.Now()

	opts, err := g.config.IndexOptions(g.slugifier)
	if err != nil {
		return err
	}
	idx, err := model.BuildIndex(ctx, g.sourceFS, opts)
	if err != nil {
		return fmt.Errorf("building content index failed: %w", err)
	}
	g.logger.Info("content indexed", "posts", len(idx.Posts), "pages", len(idx.Pages), "assets", len(idx.Assets))

	b := &build{
		index:   idx,
		site:    g.site(idx),
		claims:  make(map[string]string),
		outputs: make(map[string][]byte),
	}

	err = g.plan(ctx, b)
	if err != nil {
		return fmt.Errorf("planning outputs failed: %w", err)
	}

	err = g.renderDocuments(ctx, b)
	if err != nil {
		return fmt.Errorf("rendering documents failed: %w", err)
	}

	err = g.renderListings(ctx, b)
	if err != nil {
		return fmt.Errorf("rendering listings failed: %w", err)
	}

	if !g.config.Feed.Disabled {
		err = g.renderFeed(ctx, b)
		if err != nil {
			return fmt.Errorf("feed rendering failed: %w", err)
		}
	}

	err = g.compileStylesheet(b)
	if err != nil {
		return err
	}

	err = g.commit(ctx, b)
	if err != nil {
		return fmt.Errorf("writing outputs failed: %w", err)
	}

	g.logger.Info("site generated",
		"outputs", len(b.outputs),
		"copied", len(b.copies),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return nil
}
