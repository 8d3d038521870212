package generator

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/klingtnet/quire/generator/model"
	"github.com/klingtnet/quire/generator/renderer"
	"github.com/klingtnet/quire/slug"
	"gopkg.in/yaml.v3"
)

var (
	ErrAuthorUnset     = fmt.Errorf("author must be set")
	ErrContentDirUnset = fmt.Errorf("content directory must be set")
	ErrOutputDirUnset  = fmt.Errorf("output directory must be set")
	ErrBadBaseURL      = fmt.Errorf("base URL must be an absolute http(s) URL")
	ErrBadPaginate     = fmt.Errorf("paginate must not be negative")
	ErrBadTimezone     = fmt.Errorf("unknown timezone")
)

// FeedConfig configures the RSS feed.
type FeedConfig struct {
	// Path of the feed relative to the output directory.
	Path string `json:"path" yaml:"path"`
	// Limit is the maximum number of posts in the feed.
	Limit    int  `json:"limit" yaml:"limit"`
	Disabled bool `json:"disabled" yaml:"disabled"`
}

type Config struct {
	Title       string `json:"title" yaml:"title"`
	Author      string `json:"author" yaml:"author"`
	Description string `json:"description" yaml:"description"`
	BaseURL     string `json:"base_url" yaml:"base_url"`

	ContentDir string `json:"content_dir" yaml:"content_dir"`
	OutputDir  string `json:"output_dir" yaml:"output_dir"`
	LayoutsDir string `json:"layouts_dir" yaml:"layouts_dir"`
	StaticDir  string `json:"static_dir" yaml:"static_dir"`
	// Stylesheet is the path of the stylesheet source relative to the content directory.
	// The embedded default stylesheet is used if it is empty.
	Stylesheet       string `json:"stylesheet" yaml:"stylesheet"`
	StylesheetOutput string `json:"stylesheet_output" yaml:"stylesheet_output"`

	IncludeDrafts bool                     `json:"include_drafts" yaml:"include_drafts"`
	Classify      []model.Rule             `json:"classify" yaml:"classify"`
	Exclude       []string                 `json:"exclude" yaml:"exclude"`
	Permalinks    model.Permalinks         `json:"permalinks" yaml:"permalinks"`
	DefaultLayout string                   `json:"default_layout" yaml:"default_layout"`
	ListingLayout string                   `json:"listing_layout" yaml:"listing_layout"`
	Paginate      int                      `json:"paginate" yaml:"paginate"`
	PaginatePath  string                   `json:"paginate_path" yaml:"paginate_path"`
	CategoryPath  string                   `json:"category_path" yaml:"category_path"`
	Timezone      string                   `json:"timezone" yaml:"timezone"`
	Feed          FeedConfig               `json:"feed" yaml:"feed"`
	Markdown      renderer.MarkdownOptions `json:"markdown" yaml:"markdown"`
}

// ParseConfigFile reads a JSON config, or a YAML config if the file ends with .yaml or .yml.
func ParseConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAMLConfig(data)
	default:
		return parseConfig(data)
	}
}

func parseConfig(data []byte) (config *Config, err error) {
	config = new(Config)
	err = json.Unmarshal(data, config)
	return
}

func parseYAMLConfig(data []byte) (config *Config, err error) {
	config = new(Config)
	err = yaml.Unmarshal(data, config)
	return
}

// ApplyDefaults fills in every optional field that is unset.
func (c *Config) ApplyDefaults() {
	if c.Title == "" {
		c.Title = c.Author
	}
	if c.DefaultLayout == "" {
		c.DefaultLayout = "default"
	}
	if c.ListingLayout == "" {
		c.ListingLayout = "list"
	}
	if c.PaginatePath == "" {
		c.PaginatePath = "page/:num/"
	}
	if c.CategoryPath == "" {
		c.CategoryPath = "/categories/:category/"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.Feed.Path == "" {
		c.Feed.Path = "feed.xml"
	}
	if c.Feed.Limit == 0 {
		c.Feed.Limit = 20
	}
	if c.StylesheetOutput == "" {
		c.StylesheetOutput = "style.css"
		if c.Stylesheet != "" {
			c.StylesheetOutput = replaceExtension(c.Stylesheet, ".css")
		}
	}
}

// Validate checks the config for errors, defaults should be applied before.
func (c *Config) Validate() error {
	if c.Author == "" {
		return ErrAuthorUnset
	}
	if c.ContentDir == "" {
		return ErrContentDirUnset
	}
	if c.OutputDir == "" {
		return ErrOutputDirUnset
	}

	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrBadBaseURL, c.BaseURL)
		}
	}

	if c.Paginate < 0 {
		return ErrBadPaginate
	}
	if c.PaginatePath != "" && !strings.Contains(c.PaginatePath, ":num") {
		return fmt.Errorf("%w: paginate path %q lacks :num", model.ErrBadPermalink, c.PaginatePath)
	}
	if c.CategoryPath != "" && !strings.Contains(c.CategoryPath, ":category") {
		return fmt.Errorf("%w: category path %q lacks :category", model.ErrBadPermalink, c.CategoryPath)
	}
	err := c.Permalinks.Validate()
	if err != nil {
		return err
	}

	_, err = time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBadTimezone, err.Error())
	}

	if len(c.Classify) > 0 {
		_, err = model.NewClassifier(c.Classify)
		if err != nil {
			return err
		}
	}
	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: bad exclude pattern %q", model.ErrBadRule, pattern)
		}
	}

	_, err = os.Stat(c.ContentDir)
	if err != nil {
		return err
	}
	if c.LayoutsDir != "" {
		_, err = os.Stat(c.LayoutsDir)
		if err != nil {
			return err
		}
	}
	if c.StaticDir != "" {
		_, err = os.Stat(c.StaticDir)
		if err != nil {
			return err
		}
	}

	return nil
}

// IndexOptions derives the options for building the content index.
func (c *Config) IndexOptions(slugifier *slug.Slugifier) (model.IndexOptions, error) {
	location, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return model.IndexOptions{}, fmt.Errorf("%w: %s", ErrBadTimezone, err.Error())
	}

	opts := model.IndexOptions{
		Permalinks:    c.Permalinks,
		Slugifier:     slugifier,
		Location:      location,
		IncludeDrafts: c.IncludeDrafts,
		Exclude:       append([]string(nil), c.Exclude...),
	}
	if len(c.Classify) > 0 {
		opts.Classifier, err = model.NewClassifier(c.Classify)
		if err != nil {
			return model.IndexOptions{}, err
		}
	}

	return opts, nil
}

// replaceExtension replaces the extension of path with ext.
// The given path remains unchanged if it does not end with a file extension.
// Note that ext is expected to start with a dot.
func replaceExtension(p, ext string) string {
	actual := path.Ext(p)
	if actual != "" {
		return p[:len(p)-len(actual)] + ext
	}

	return p
}
