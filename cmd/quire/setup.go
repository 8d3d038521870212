package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/klingtnet/quire/generator"
	"github.com/klingtnet/quire/slug"
	"github.com/urfave/cli/v2"
)

func flagOverride(config *generator.Config, c *cli.Context) {
	if c.String("content") != "" {
		config.ContentDir = c.String("content")
	}
	if c.String("layouts") != "" {
		config.LayoutsDir = c.String("layouts")
	}
	if c.String("static") != "" {
		config.StaticDir = c.String("static")
	}
	if c.String("output") != "" {
		config.OutputDir = c.String("output")
	}
	if c.Bool("drafts") {
		config.IncludeDrafts = true
	}
}

func newLogger(c *cli.Context) *slog.Logger {
	level := slog.LevelInfo
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

type resources struct {
	sourceFS, staticFS, layoutFS fs.FS
}

// initResources opens the configured directories, layoutFS and staticFS stay nil if unset.
func initResources(config *generator.Config) *resources {
	r := &resources{sourceFS: os.DirFS(config.ContentDir)}

	if config.StaticDir != "" {
		r.staticFS = os.DirFS(config.StaticDir)
	}
	if config.LayoutsDir != "" {
		r.layoutFS = os.DirFS(config.LayoutsDir)
	}

	return r
}

// setup reads and validates the config.
func setup(c *cli.Context) (*generator.Config, *resources, error) {
	config, err := generator.ParseConfigFile(c.String("config"))
	if err != nil {
		return nil, nil, cli.Exit(
			fmt.Sprintf("parsing config %q failed: %s", c.String("config"), err.Error()),
			BadArgument,
		)
	}
	flagOverride(config, c)
	config.ApplyDefaults()

	err = config.Validate()
	if err != nil {
		return nil, nil, cli.Exit(fmt.Sprintf("bad config: %s", err.Error()), BadArgument)
	}

	return config, initResources(config), nil
}

// newGenerator parses the layouts and wires up a generator writing to the output directory.
func newGenerator(config *generator.Config, res *resources, logger *slog.Logger) (*generator.Generator, error) {
	slugifier := slug.NewSlugifier('-')
	renderer, err := generator.NewRenderer(config, res.layoutFS, slugifier)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("bad layouts: %s", err.Error()), BadArgument)
	}

	return generator.New(
		config,
		res.sourceFS,
		res.staticFS,
		generator.NewFileStorage(config.OutputDir),
		slugifier,
		renderer,
		generator.WithLogger(logger),
	), nil
}
